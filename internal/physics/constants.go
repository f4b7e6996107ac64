// Package physics holds the process-wide particle constants table and the
// detector volumes used by containment predicates.
//
// The constants table is built at init and never written afterwards, so
// concurrent batch workers may read it freely.
package physics

import "fmt"

// Particle is one entry of the constants table. Masses are in GeV.
type Particle struct {
	Name string
	PDG  int64
	Mass float64
}

// Names of the particles the study builders use.
const (
	Muon     = "muon"
	Electron = "electron"
	KaonPlus = "kaon_p"
	KaonZero = "kaon_0"
	Pion     = "pion"
	Proton   = "proton"
)

var particles = map[string]Particle{
	Muon:     {Name: Muon, PDG: 13, Mass: 0.1056583755},
	Electron: {Name: Electron, PDG: 11, Mass: 0.00051099895},
	KaonPlus: {Name: KaonPlus, PDG: 321, Mass: 0.493677},
	KaonZero: {Name: KaonZero, PDG: 311, Mass: 0.497611},
	Pion:     {Name: Pion, PDG: 211, Mass: 0.13957039},
	Proton:   {Name: Proton, PDG: 2212, Mass: 0.93827208816},
}

// Lookup returns the particle with the given name.
func Lookup(name string) (Particle, bool) {
	p, ok := particles[name]
	return p, ok
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Particle {
	p, ok := particles[name]
	if !ok {
		panic(fmt.Sprintf("physics: unknown particle %q", name))
	}
	return p
}
