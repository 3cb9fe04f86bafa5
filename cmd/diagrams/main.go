// Command diagrams renders curator's architecture diagrams as Graphviz sources under
// ./go-diagrams. Run it from the repository root and render with dot.
package main

import (
	"log"

	"github.com/blushft/go-diagrams/diagram"
	"github.com/blushft/go-diagrams/nodes/gcp"
	"github.com/blushft/go-diagrams/nodes/programming"
)

func main() {
	generateArchitectureDiagram()
	generateComponentDiagram()
}

// generateArchitectureDiagram shows how requests flow from the CLI and HTTP surface
// through the engine to Spotify.
func generateArchitectureDiagram() {
	d, err := diagram.New(diagram.Filename("architecture"), diagram.Label("Curator Architecture"), diagram.Direction("LR"))
	if err != nil {
		log.Fatal(err)
	}

	cli := programming.Language.Go(diagram.NodeLabel("curator CLI"))
	httpSurface := gcp.Network.LoadBalancing(diagram.NodeLabel("HTTP tool surface"))
	engine := programming.Language.Go(diagram.NodeLabel("Curation engine"))
	executor := programming.Language.Go(diagram.NodeLabel("Spotify executors"))
	spotifyAPI := gcp.Network.Dns(diagram.NodeLabel("Spotify Web API"))
	tokenStore := gcp.Database.Memorystore(diagram.NodeLabel("OAuth token file"))

	d.Connect(cli, engine, diagram.Forward())
	d.Connect(httpSurface, engine, diagram.Forward())
	d.Connect(cli, executor, diagram.Forward())
	d.Connect(executor, spotifyAPI, diagram.Forward())
	d.Connect(executor, tokenStore, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}

// generateComponentDiagram shows the engine packages and their dependencies.
func generateComponentDiagram() {
	d, err := diagram.New(diagram.Filename("components"), diagram.Label("Curator Components"), diagram.Direction("TB"))
	if err != nil {
		log.Fatal(err)
	}

	rules := programming.Language.Go(diagram.NodeLabel("rules"))
	selection := programming.Language.Go(diagram.NodeLabel("selection"))
	planner := programming.Language.Go(diagram.NodeLabel("planner"))
	builder := programming.Language.Go(diagram.NodeLabel("playlist"))
	playback := programming.Language.Go(diagram.NodeLabel("playback"))
	library := programming.Language.Go(diagram.NodeLabel("library"))
	normalize := programming.Language.Go(diagram.NodeLabel("normalize"))

	core := diagram.NewGroup("engine").Label("Curation Engine")
	core.Add(rules, selection, planner, builder, playback, library, normalize)

	d.Connect(builder, planner, diagram.Forward())
	d.Connect(planner, rules, diagram.Forward())
	d.Connect(selection, rules, diagram.Forward())
	d.Connect(rules, normalize, diagram.Forward())
	d.Connect(builder, normalize, diagram.Forward())
	d.Connect(playback, normalize, diagram.Forward())
	d.Group(core)

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}
