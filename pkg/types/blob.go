package types

import "encoding/json"

// EncodeBlob serializes a file's block groups into the canonical JSON form
// stored (encrypted) as a vlob's blob: an ordered array of
// {"key": ..., "blocks": [...]} objects, one per group, in file order.
//
// encoding/json already emits struct fields in declaration order, so two
// implementations building the same []BlockGroup value produce
// byte-identical output, which reencrypt-then-diff tooling relies on.
func EncodeBlob(groups []BlockGroup) ([]byte, error) {
	if groups == nil {
		groups = []BlockGroup{}
	}
	return json.Marshal(groups)
}

// DecodeBlob parses the canonical JSON blob back into its block groups.
func DecodeBlob(data []byte) ([]BlockGroup, error) {
	var groups []BlockGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
