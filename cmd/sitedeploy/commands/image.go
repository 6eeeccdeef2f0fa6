package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/image"
)

// ImageCmd implements the 'image' command: assemble the three-stage
// serving image instead of pushing to a remote host.
type ImageCmd struct {
	KeepContext bool `help:"Keep the build context directory after assembly"`
}

func (i *ImageCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	assembler, assembly := image.NewAssembler(cfg.Image, cfg.Site.Root, cfg.Site.OutputDir)

	fmt.Println("Starting image assembly")
	if err := assembler.Run(context.Background(), assembly); err != nil {
		return err
	}
	if !i.KeepContext {
		cleanupContext(assembly)
	}
	fmt.Printf("Image built: %s\n", assembly.ImageTag)
	return nil
}
