package world

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/talgya/orrery/internal/tuning"
)

// GenConfig controls procedural system generation.
type GenConfig struct {
	Seed         int64
	SystemRadius float64 // Planets are added until the next one would not fit
	SunRadius    float64
	SizeMin      float64 // Body radius as a fraction of its parent's radius
	SizeMax      float64
	MoonProb     float64 // Chance of each additional moon
	MaxMoons     int
	FeatureProb  float64 // Chance a body carries a station or an ore reserve
	BasePeriod   float64 // Period of an orbit of radius 1 around the sun
	MoonSpeed    float64 // Orbital speed of moons relative to their planet
	Fleet        FleetDesc
}

// DefaultGenConfig returns sensible defaults for a compact system.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		SystemRadius: 2.0,
		SunRadius:    0.1,
		SizeMin:      0.1,
		SizeMax:      0.3,
		MoonProb:     0.5,
		MaxMoons:     3,
		FeatureProb:  0.5,
		BasePeriod:   300,
		MoonSpeed:    0.02,
		Fleet:        FleetDesc{Miners: 12, Traders: 10, Pirates: 3},
	}
}

var planetNames = []string{
	"Aster", "Bellum", "Corvin", "Dray", "Eos", "Fenwick", "Gale", "Hollis",
	"Ivra", "Juno", "Kestrel", "Lune", "Marrow", "Nox", "Orla", "Pell",
}

var moonSuffixes = []string{"I", "II", "III", "IV", "V", "VI"}

// Generate produces a random but reproducible world description. Each
// planet's subsystem is sized from its moons outward before the planet's own
// orbit is chosen, so subsystems never overlap.
func Generate(cfg GenConfig) Description {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	richness := opensimplex.NewNormalized(seed)

	d := Description{
		Seed:   seed,
		Sun:    SunDesc{Name: "Sol", Radius: cfg.SunRadius},
		Fleet:  cfg.Fleet,
		Tuning: tuning.Default(),
	}

	extent := cfg.SunRadius
	for i := 0; ; i++ {
		pr := cfg.SunRadius * uniform(rng, cfg.SizeMin, cfg.SizeMax)
		planet := BodyDesc{
			Name:   planetNames[i%len(planetNames)],
			Radius: pr,
		}
		if i >= len(planetNames) {
			planet.Name = fmt.Sprintf("%s-%d", planet.Name, i/len(planetNames)+1)
		}

		// Subsystem extent grows outward as moons are added.
		sub := pr
		for len(planet.Moons) < cfg.MaxMoons && sub < pr*5 && rng.Float64() < cfg.MoonProb {
			mr := pr * uniform(rng, cfg.SizeMin, cfg.SizeMax)
			dist := sub + pr + mr*3
			planet.Moons = append(planet.Moons, BodyDesc{
				Name:   planet.Name + " " + moonSuffixes[len(planet.Moons)],
				Radius: mr,
				Orbit: OrbitDesc{
					Radius:     dist,
					Period:     2 * math.Pi * dist / cfg.MoonSpeed,
					Phase:      rng.Float64() * 2 * math.Pi,
					Retrograde: rng.Intn(2) == 0,
				},
			})
			sub = dist + mr
		}

		span := sub + pr*3
		if extent+2*span > cfg.SystemRadius {
			break
		}
		r := extent + span
		planet.Orbit = OrbitDesc{
			Radius: r,
			// Outer planets are slower; the speed class scales by 1/3, 2/3 or 1.
			Period:     cfg.BasePeriod * math.Pow(r, 1.5) * 1.5 / speedClass(rng),
			Phase:      rng.Float64() * 2 * math.Pi,
			Retrograde: rng.Intn(2) == 0,
		}
		extent = r + span
		d.Planets = append(d.Planets, planet)
	}

	// Features: each body may carry a station or an ore reserve.
	for pi := range d.Planets {
		p := &d.Planets[pi]
		assignFeature(rng, richness, cfg.FeatureProb, p, float64(pi), 0)
		for mi := range p.Moons {
			assignFeature(rng, richness, cfg.FeatureProb, &p.Moons[mi], float64(pi), float64(mi+1))
		}
	}
	ensureFeatures(&d, richness)
	return d
}

func assignFeature(rng *rand.Rand, richness opensimplex.Noise, prob float64, b *BodyDesc, x, y float64) {
	if rng.Float64() >= prob {
		return
	}
	if rng.Intn(2) == 0 {
		b.Stations = append(b.Stations, StationDesc{
			Name: b.Name + " Station",
			Ore:  int(50 + 150*richness.Eval2(x*0.7, y*0.7+10)),
		})
		return
	}
	b.Ore = int(200 + 800*richness.Eval2(x*0.7, y*0.7))
}

// ensureFeatures guarantees at least one station and one ore body so the
// result always builds. With a single planet both land on it.
func ensureFeatures(d *Description, richness opensimplex.Noise) {
	if len(d.Planets) == 0 {
		d.Planets = append(d.Planets, BodyDesc{
			Name:   planetNames[0],
			Radius: d.Sun.Radius * 0.2,
			Orbit:  OrbitDesc{Radius: d.Sun.Radius * 4, Period: 300},
		})
	}
	var stations, ores int
	walk(d, func(b *BodyDesc) {
		stations += len(b.Stations)
		if b.Ore > 0 {
			ores++
		}
	})
	if stations == 0 {
		inner := &d.Planets[0]
		inner.Stations = append(inner.Stations, StationDesc{
			Name: inner.Name + " Station",
			Ore:  int(50 + 150*richness.Eval2(0, 10)),
		})
	}
	if ores == 0 {
		outer := &d.Planets[len(d.Planets)-1]
		outer.Ore = int(200 + 800*richness.Eval2(float64(len(d.Planets)), 0))
	}
}

func walk(d *Description, fn func(*BodyDesc)) {
	for pi := range d.Planets {
		fn(&d.Planets[pi])
		for mi := range d.Planets[pi].Moons {
			fn(&d.Planets[pi].Moons[mi])
		}
	}
}

func speedClass(rng *rand.Rand) float64 {
	return 0.5 * float64(1+rng.Intn(3))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
