// Command unixfsctl is a non-interactive administrative tool over a unixfs
// disk image: one subcommand, one operation, exit. It is explicitly not the
// interactive shell a front end would build on top of this module — there is
// no REPL and no persisted "current session" beyond the flags given to a
// single invocation, run as a one-shot urfave/cli/v2 command.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/campusos/unixfs"
	"github.com/campusos/unixfs/fsck"
)

var diskFlag = &cli.StringFlag{
	Name:     "disk",
	Usage:    "path to the backing disk image",
	Required: true,
}

var userFlag = &cli.StringFlag{
	Name:  "user",
	Usage: "username to authenticate as",
	Value: "root",
}

var passwordFlag = &cli.StringFlag{
	Name:  "password",
	Usage: "password for --user",
	Value: "root",
}

func main() {
	app := cli.App{
		Name:  "unixfsctl",
		Usage: "administer a unixfs disk image",
		Commands: []*cli.Command{
			formatCommand(),
			lsCommand(),
			mkdirCommand(),
			touchCommand(),
			writeCommand(),
			catCommand(),
			chmodCommand(),
			chownCommand(),
			checkCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("unixfsctl: %s", err.Error())
	}
}

// mountWithSession opens --disk, mounts it, and logs --user in. Only the
// FileSystem is returned; on success the backing device stays open until the
// process exits.
func mountWithSession(c *cli.Context) (*unixfs.FileSystem, error) {
	device, err := unixfs.OpenFile(c.String("disk"))
	if err != nil {
		return nil, err
	}

	fs := unixfs.NewFileSystem(device)
	if err := fs.Mount(); err != nil {
		device.Close()
		return nil, err
	}
	if err := fs.Login(c.String("user"), c.String("password")); err != nil {
		device.Close()
		return nil, err
	}
	return fs, nil
}

func formatCommand() *cli.Command {
	return &cli.Command{
		Name:  "format",
		Usage: "create or wipe a disk image",
		Flags: []cli.Flag{diskFlag},
		Action: func(c *cli.Context) error {
			device, err := unixfs.OpenFile(c.String("disk"))
			if err != nil {
				return err
			}
			defer device.Close()

			fs := unixfs.NewFileSystem(device)
			return fs.Format()
		},
	}
}

func lsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "list a directory",
		ArgsUsage: "[PATH]",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}

			entries, err := fs.Ls(c.Args().First())
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Printf("%-28s %v\tmode=%03o\towner=%d\tsize=%d\n",
					entry.Name, entry.Stat.Type, entry.Stat.Mode, entry.Stat.Owner, entry.Stat.Size)
			}
			return nil
		},
	}
}

func mkdirCommand() *cli.Command {
	return &cli.Command{
		Name:      "mkdir",
		Usage:     "create a directory in the current directory",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}
			_, err = fs.Mkdir(c.Args().First())
			return err
		},
	}
}

func touchCommand() *cli.Command {
	return &cli.Command{
		Name:      "touch",
		Usage:     "create an empty regular file",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}
			_, err = fs.CreateFile(c.Args().First())
			return err
		},
	}
}

func writeCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "overwrite a file's content with stdin",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			return fs.WriteFile(c.Args().First(), data)
		},
	}
}

func catCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "print a file's content to stdout",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}

			data, err := fs.ReadFile(c.Args().First())
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func chmodCommand() *cli.Command {
	return &cli.Command{
		Name:      "chmod",
		Usage:     "change a file's mode bits",
		ArgsUsage: "MODE NAME",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}

			mode, err := strconv.ParseUint(c.Args().Get(0), 8, 16)
			if err != nil {
				return err
			}
			return fs.Chmod(c.Args().Get(1), uint16(mode))
		},
	}
}

func chownCommand() *cli.Command {
	return &cli.Command{
		Name:      "chown",
		Usage:     "change a file's owner uid",
		ArgsUsage: "UID NAME",
		Flags:     []cli.Flag{diskFlag, userFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			fs, err := mountWithSession(c)
			if err != nil {
				return err
			}

			uid, err := strconv.ParseUint(c.Args().Get(0), 10, 32)
			if err != nil {
				return err
			}
			return fs.Chown(c.Args().Get(1), uint32(uid))
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "run a read-only consistency pass over the image",
		Flags: []cli.Flag{diskFlag},
		Action: func(c *cli.Context) error {
			device, err := unixfs.OpenFile(c.String("disk"))
			if err != nil {
				return err
			}
			defer device.Close()

			fs := unixfs.NewFileSystem(device)
			if err := fs.Mount(); err != nil {
				return err
			}

			report := fsck.Check(fs)
			fmt.Printf("scanned %d live inodes\n", report.InodesScanned)
			if report.OK() {
				fmt.Println("no inconsistencies found")
				return nil
			}
			return report.Err
		},
	}
}
