package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/alphaserve/axp/internal/config"
	"github.com/alphaserve/axp/internal/grain"
	"github.com/alphaserve/axp/internal/machine"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	configPath := fs.String("config", "", "machine configuration file")
	imagePath := fs.String("image", "", "flat binary image to load")
	loadAddr := fs.Uint64("load", 0, "physical load address for the image")
	entry := fs.Uint64("entry", 0, "initial program counter")
	dumpISA := fs.Bool("dump-isa", false, "print the instruction set table and exit")
	verbose := fs.Bool("verbose", false, "enable debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *dumpISA {
		registry := grain.NewRegistry(logger)
		grain.RegisterBaseISA(registry)
		dumpISATable(registry)
		return
	}

	if err := run(logger, *configPath, *imagePath, *loadAddr, *entry); err != nil {
		if errors.Is(err, machine.ErrHalt) {
			return
		}
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, imagePath string, loadAddr, entry uint64) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return err
	}

	m, err := machine.NewMachine(cfg, os.Stdout, logger)
	if err != nil {
		return err
	}

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		if err := m.LoadBytes(loadAddr, data); err != nil {
			return fmt.Errorf("load image: %w", err)
		}
	}
	m.CPU(0).SetPC(entry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = m.Run(ctx, 0)
	if errors.Is(err, machine.ErrHalt) {
		logger.Info("halted", "code", m.HaltCode())
	}
	return err
}

// dumpISATable prints every registered grain, colored when stdout is a
// terminal.
func dumpISATable(registry *grain.Registry) {
	colored := term.IsTerminal(int(os.Stdout.Fd()))

	style := func(s ansi.Style, text string) string {
		if !colored {
			return text
		}
		return s.Styled(text)
	}

	var grains []*grain.Grain
	registry.Walk(func(g *grain.Grain) {
		grains = append(grains, g)
	})
	sort.Slice(grains, func(i, j int) bool {
		if grains[i].Opcode != grains[j].Opcode {
			return grains[i].Opcode < grains[j].Opcode
		}
		return grains[i].Function < grains[j].Function
	})

	bold := ansi.Style{}.Bold()
	dim := ansi.Style{}.Faint()

	fmt.Printf("%s\n", style(bold, fmt.Sprintf("%-20s %-6s %-6s %-8s %s", "MNEMONIC", "OP", "FUNC", "TYPE", "UNIT")))
	for _, g := range grains {
		unit := grain.UnitFor(g.Opcode)
		fmt.Printf("%-20s %s %s %-8s %s\n",
			g.Mnemonic,
			style(dim, fmt.Sprintf("0x%02X  ", g.Opcode)),
			style(dim, fmt.Sprintf("0x%03X ", g.Function)),
			g.Type.String(),
			unit.String())
	}
	fmt.Printf("\n%d grains registered\n", registry.GrainCount())
}
