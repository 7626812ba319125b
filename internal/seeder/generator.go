package seeder

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mdpsurvey/internal/domain/model"
)

// Ratings are drawn around a per-participant tier so a participant's
// evaluations resemble each other.
const (
	tierCount      = 4
	ratingMin      = 1
	ratingMax      = 5
	rotationCount  = 4
	evalsPerMDP    = 3
	jitterSpread   = 3 // -1, 0 or +1
	specificChance = 0.8
)

var firstNames = []string{ //nolint:gochecknoglobals // fixed name pool
	"Avery", "Blake", "Casey", "Devon", "Emery", "Finley", "Harper", "Jordan",
	"Kendall", "Logan", "Morgan", "Parker", "Quinn", "Reese", "Riley", "Sawyer",
}

var lastNames = []string{ //nolint:gochecknoglobals // fixed name pool
	"Alvarez", "Brooks", "Chen", "Dubois", "Evans", "Fischer", "Garcia", "Hughes",
	"Ibrahim", "Jensen", "Kim", "Lopez", "Morales", "Nguyen", "Okafor", "Patel",
}

var managers = []string{ //nolint:gochecknoglobals // fixed name pool
	"Dana Whitfield", "Marcus Reed", "Priya Raman", "Tom Becker", "Yvonne Clark",
}

// Generator produces deterministic evaluations for a seed.
type Generator struct {
	rng   *rand.Rand
	runID string
}

// NewGenerator returns a generator; seed 0 picks one from the clock.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed>>1|1)),
		runID: uuid.NewString(),
	}
}

// Generate returns n evaluations spread over roughly n/3 participants.
func (g *Generator) Generate(n int) []Evaluation {
	if n <= 0 {
		return nil
	}

	participants := n/evalsPerMDP + 1
	names := make([]string, participants)
	tiers := make([]int, participants)
	fns := make([]model.Function, participants)
	functions := model.Functions()
	for i := range names {
		names[i] = participantName(i)
		tiers[i] = g.rng.IntN(tierCount)
		fns[i] = functions[g.rng.IntN(len(functions))]
	}

	out := make([]Evaluation, n)
	for i := range out {
		p := g.rng.IntN(participants)
		out[i] = Evaluation{
			Key:        g.runID + "-" + strconv.Itoa(i),
			Submission: g.submission(names[p], fns[p], tiers[p]),
		}
	}
	return out
}

func (g *Generator) submission(name string, fn model.Function, tier int) model.Submission {
	s := model.Submission{
		MDPName:       name,
		Function:      fn,
		ManagerName:   managers[g.rng.IntN(len(managers))],
		Rotation:      model.Label(strconv.Itoa(g.rng.IntN(rotationCount) + 1)),
		JobKnowledge:  g.rating(tier),
		QualityOfWork: g.rating(tier),
		Communication: g.rating(tier),
		Initiative:    g.rating(tier),
	}
	if g.rng.Float64() < specificChance {
		a, b := g.rating(tier), g.rating(tier)
		s.FunctionSpecific1, s.FunctionSpecific2 = &a, &b
	}
	return s
}

// rating draws a 1-5 rating near tier+2.
func (g *Generator) rating(tier int) model.Rating {
	r := tier + ratingMin + 1 + g.rng.IntN(jitterSpread) - 1
	return model.Rating(max(ratingMin, min(ratingMax, r)))
}

// participantName is unique for the first len(firstNames)*len(lastNames)
// indexes and adds a numeric suffix after that.
func participantName(i int) string {
	name := firstNames[i%len(firstNames)] + " " + lastNames[(i/len(firstNames))%len(lastNames)]
	if round := i / (len(firstNames) * len(lastNames)); round > 0 {
		name += " " + strconv.Itoa(round+1)
	}
	return name
}
