package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parsecfs/parsec/pkg/file"
)

func loadFileForHandle(ctx context.Context, engine *file.Engine, name string) (*file.File, error) {
	rec, err := loadHandleRecord(name)
	if err != nil {
		return nil, err
	}
	key, err := rec.symKey()
	if err != nil {
		return nil, fmt.Errorf("bad key in handle %q: %w", name, err)
	}
	return engine.Load(ctx, rec.ID, key, rec.ReadSeed, rec.WriteSeed, 0)
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new file and save its descriptor under <name>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := engine.Create(ctx)
		if err != nil {
			return err
		}
		if err := saveHandle(args[0], f); err != nil {
			return err
		}
		fmt.Printf("created %s (id=%s)\n", args[0], f.ID)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <name> <data>",
	Short: "Queue a write at --offset (flush or commit to take effect)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		f.Write([]byte(args[1]), offset)
		fmt.Printf("queued %d bytes at offset %d\n", len(args[1]), offset)
		return nil
	},
}

var truncateCmd = &cobra.Command{
	Use:   "truncate <name> <length>",
	Short: "Queue a truncate to <length> bytes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var length int
		if _, err := fmt.Sscanf(args[1], "%d", &length); err != nil {
			return fmt.Errorf("bad length %q: %w", args[1], err)
		}
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		f.Truncate(length)
		fmt.Printf("queued truncate to %d bytes\n", length)
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <name>",
	Short: "Read --size bytes from --offset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("size")
		offset, _ := cmd.Flags().GetInt("offset")
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		if size == 0 {
			stat, err := f.Stat(ctx)
			if err != nil {
				return err
			}
			size = stat.Size - offset
			if size < 0 {
				size = 0
			}
		}
		content, err := f.Read(ctx, size, offset)
		if err != nil {
			return err
		}
		fmt.Println(string(content))
		return nil
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush <name>",
	Short: "Fold queued writes/truncates into a staged local vlob update",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		if err := f.Flush(ctx); err != nil {
			return err
		}
		fmt.Println("flushed")
		return nil
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit <name>",
	Short: "Flush, then synchronize blocks and the vlob to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		if err := f.Commit(ctx); err != nil {
			return err
		}
		if err := saveHandle(args[0], f); err != nil {
			return err
		}
		fmt.Printf("committed, version=%d\n", f.Version)
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <name>",
	Short: "Print size, version, and timestamps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		stat, err := f.Stat(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("id=%s size=%d version=%d created=%s updated=%s\n",
			stat.ID, stat.Size, stat.Version, stat.Created, stat.Updated)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <name> <version>",
	Short: "Stage the content of an older committed version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var version int
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("bad version %q: %w", args[1], err)
		}
		ctx := cmd.Context()
		engine, closer, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		f, err := loadFileForHandle(ctx, engine, args[0])
		if err != nil {
			return err
		}
		if err := f.Restore(ctx, version); err != nil {
			return err
		}
		fmt.Printf("restored version %d into the pending draft\n", version)
		return nil
	},
}

func init() {
	writeCmd.Flags().Int("offset", 0, "byte offset to write at")
	readCmd.Flags().Int("offset", 0, "byte offset to read from")
	readCmd.Flags().Int("size", 0, "bytes to read (0 = to end of file)")
}
