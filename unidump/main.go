// Command unidump prints the DMX values OLA holds for every fixture in a euclid config.
package main

import (
	"flag"
	"log"
	"sort"

	"github.com/nickysemenza/gola"
	"github.com/robmorgan/euclid/config"
)

func main() {
	configPath := flag.String("config", "", "path to the euclid YAML config")
	flag.Parse()

	cfg := config.NewEuclidConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	client, err := gola.New(cfg.DMX.OLAHost)
	if err != nil {
		log.Fatalf("could not create client: %v", err)
	}
	defer client.Close()

	for _, universe := range universes(cfg.DMX.Patch) {
		x, err := client.GetDmx(universe)
		if err != nil {
			log.Printf("GetDmx: %d: %v", universe, err)
			continue
		}
		for _, f := range cfg.DMX.Patch {
			if f.Universe != universe {
				continue
			}
			values := make([]byte, 0, len(f.Addresses()))
			for _, addr := range f.Addresses() {
				if addr-1 < len(x.Data) {
					values = append(values, x.Data[addr-1])
				}
			}
			log.Printf("universe %d channel %d %s@%d: %v", universe, f.Channel, f.Name, f.Address, values)
		}
	}
}

// universes returns the distinct universes used by a patch, in order.
func universes(patch []config.PatchedFixture) []int {
	seen := map[int]bool{}
	var out []int
	for _, f := range patch {
		if !seen[f.Universe] {
			seen[f.Universe] = true
			out = append(out, f.Universe)
		}
	}
	sort.Ints(out)
	return out
}
