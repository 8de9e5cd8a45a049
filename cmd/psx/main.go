// Command psx is the host entry point: it loads a BIOS image and an
// optional disk or PSX-EXE side-load file and runs the machine. Grounded
// on cmd/jeebie/main.go's urfave/cli flag layout.
package main

import (
	"errors"
	"io/ioutil"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	psxcore "github.com/rook-emu/psxcore"
	"github.com/rook-emu/psxcore/internal/render"
)

func main() {
	app := cli.NewApp()
	app.Name = "psx"
	app.Description = "A PlayStation-class console emulator core"
	app.Usage = "psx --bios <BIOS file> [--disk <disk image>] [--exe <PSX-EXE file>]"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "bios", Usage: "Path to the 512 KiB BIOS image"},
		cli.StringFlag{Name: "disk", Usage: "Path to a .bin CD image"},
		cli.StringFlag{Name: "exe", Usage: "Path to a PSX-EXE side-load file"},
		cli.BoolFlag{Name: "headless", Usage: "Run without a terminal display"},
		cli.IntFlag{Name: "frames", Usage: "Number of frames to run in headless mode", Value: 0},
		cli.BoolFlag{Name: "trace", Usage: "Log a disassembly line for the instruction at PC before each frame (headless only); individual instructions are not traced"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("psx: fatal error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	biosPath := c.String("bios")
	if biosPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("psx: --bios is required")
	}

	biosData, err := ioutil.ReadFile(filepath.Clean(biosPath))
	if err != nil {
		return err
	}

	machine, err := psxcore.New(biosData)
	if err != nil {
		return err
	}

	if diskPath := c.String("disk"); diskPath != "" {
		fs := afero.NewOsFs()
		if err := machine.InsertDisk(fs, diskPath); err != nil {
			return err
		}
	}

	if exePath := c.String("exe"); exePath != "" {
		exeData, err := ioutil.ReadFile(filepath.Clean(exePath))
		if err != nil {
			return err
		}
		if err := machine.LoadSideload(exeData); err != nil {
			return err
		}
	}

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("psx: --headless requires --frames with a positive value")
		}
		trace := c.Bool("trace")
		for i := 0; i < frames; i++ {
			if trace {
				line := machine.DisassembleAt(machine.PC())
				slog.Debug("trace", "pc", line.Address, "instruction", line.Instruction)
			}
			machine.RunFrame()
		}
		return nil
	}

	renderer, err := render.NewTerminalRenderer(machine)
	if err != nil {
		return err
	}
	return renderer.Run()
}
