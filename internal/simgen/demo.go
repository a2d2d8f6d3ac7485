package simgen

import (
	"fmt"

	"github.com/ndrandal/simviz/internal/random"
	"github.com/ndrandal/simviz/internal/simulation"
)

// demoMixes are the buyer/seller role mixes a demo study cycles through.
var demoMixes = []struct {
	tag           string
	buyer, seller []string
}{
	{"zi", nil, nil},
	{"kaplan-buyers", []string{RoleKaplan, RoleZI}, nil},
	{"kaplan-sellers", nil, []string{RoleKaplan, RoleZI}},
}

// Demo runs n markets from DefaultParams with case ids 1..n, cycling the
// agent role mix. All markets share rng.
func Demo(rng *random.RNG, n int) ([]*simulation.Simulation, error) {
	sims := make([]*simulation.Simulation, 0, n)
	for i := 0; i < n; i++ {
		mix := demoMixes[i%len(demoMixes)]
		p := DefaultParams()
		p.CaseID = i + 1
		p.Tag = mix.tag
		p.BuyerRoles = mix.buyer
		p.SellerRoles = mix.seller
		sim, err := Run(p, rng)
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", p.CaseID, err)
		}
		sims = append(sims, sim)
	}
	return sims, nil
}
