package workflow

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{StatusPending, StatusApproved, StatusAccepted, StatusRejected}

// everyChain enumerates all 4^5 combinations of level statuses.
func everyChain() []Chain {
	chains := make([]Chain, 0, 1024)
	var build func(c Chain, level int)
	build = func(c Chain, level int) {
		if level == LevelCount {
			chains = append(chains, c)
			return
		}
		for _, s := range allStatuses {
			c[level].Status = s
			build(c, level+1)
		}
	}
	build(NewChain(), 0)
	return chains
}

func TestOverall_PriorityOrder(t *testing.T) {
	for _, c := range everyChain() {
		anyRejected, anyAccepted, anyApproved := false, false, false
		for _, state := range c {
			switch state.Status {
			case StatusRejected:
				anyRejected = true
			case StatusAccepted:
				anyAccepted = true
			case StatusApproved:
				anyApproved = true
			}
		}

		want := StatusPending
		switch {
		case anyRejected:
			want = StatusRejected
		case anyAccepted:
			want = StatusAccepted
		case anyApproved:
			want = StatusApproved
		}

		assert.Equal(t, want, c.Overall(), "chain %v", c)
	}
}

// The list filter must agree with Overall for every status combination:
// a chain matches filter X exactly when its derived status is X.
func TestMatches_AgreesWithOverall(t *testing.T) {
	filters := []Filter{FilterPending, FilterApproved, FilterAccepted, FilterRejected}
	for _, c := range everyChain() {
		assert.True(t, c.Matches(FilterAll))
		for _, f := range filters {
			want := c.Overall() == Status(f)
			assert.Equal(t, want, c.Matches(f), "chain %v filter %s", c, f)
		}
	}
}

// The filter predicate spelled out independently of Overall: rejected wins,
// accepted excludes rejected, approved excludes both, pending excludes all.
func TestMatches_ExplicitPredicate(t *testing.T) {
	for _, c := range everyChain() {
		anyRejected, anyAccepted, anyApproved := false, false, false
		for _, state := range c {
			switch state.Status {
			case StatusRejected:
				anyRejected = true
			case StatusAccepted:
				anyAccepted = true
			case StatusApproved:
				anyApproved = true
			}
		}

		assert.Equal(t, anyRejected, c.Matches(FilterRejected))
		assert.Equal(t, anyAccepted && !anyRejected, c.Matches(FilterAccepted))
		assert.Equal(t, anyApproved && !anyAccepted && !anyRejected, c.Matches(FilterApproved))
		assert.Equal(t, !anyApproved && !anyAccepted && !anyRejected, c.Matches(FilterPending))
	}
}

func TestCanAct_Gating(t *testing.T) {
	c := NewChain()
	assert.True(t, c.CanAct(LevelKebele))
	assert.False(t, c.CanAct(LevelWoreda), "woreda must wait for kebele approval")
	assert.False(t, c.CanAct(LevelFederal))

	c[LevelKebele].Status = StatusApproved
	assert.False(t, c.CanAct(LevelKebele), "a decided level cannot act again")
	assert.True(t, c.CanAct(LevelWoreda))
	assert.False(t, c.CanAct(LevelZone))

	c[LevelWoreda].Status = StatusAccepted
	// accepted is terminal for the level but does not open the next one
	assert.False(t, c.CanAct(LevelZone))
}

func TestCanAct_RejectionBlocksDownstream(t *testing.T) {
	c := NewChain()
	c[LevelKebele].Status = StatusApproved
	c[LevelWoreda].Status = StatusRejected

	for _, l := range []Level{LevelZone, LevelRegion, LevelFederal} {
		assert.False(t, c.CanAct(l), "level %s must be blocked after rejection", l)
	}
	assert.Equal(t, StatusRejected, c.Overall())
}

// Random sequences of transitions: applying a decision only when CanAct
// holds must never produce a state where a level left pending without its
// predecessor approved, and Overall stays rejected once any level rejects.
func TestGating_Monotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	decisions := []Status{StatusApproved, StatusAccepted, StatusRejected}

	for i := 0; i < 500; i++ {
		c := NewChain()
		rejectedSeen := false

		for step := 0; step < 20; step++ {
			level := Level(rng.Intn(LevelCount))
			decision := decisions[rng.Intn(len(decisions))]

			if !c.CanAct(level) {
				continue
			}
			if rejectedSeen {
				t.Fatalf("level %s became actionable after a rejection", level)
			}

			c[level].Status = decision
			if decision == StatusRejected {
				rejectedSeen = true
			}

			// invariant: every non-pending level except kebele has an
			// approved predecessor
			for _, l := range Levels() {
				if c[l].Status == StatusPending {
					continue
				}
				if prev, ok := l.Prev(); ok {
					assert.Equal(t, StatusApproved, c[prev].Status,
						"level %s acted without predecessor approval", l)
				}
			}

			if rejectedSeen {
				assert.Equal(t, StatusRejected, c.Overall())
			}
		}
	}
}

func TestCanEditOrDelete_Window(t *testing.T) {
	c := NewChain()
	assert.True(t, c.CanEditOrDelete())

	c[LevelKebele].Status = StatusApproved
	assert.False(t, c.CanEditOrDelete())

	// no transition resets a level to pending, so the window never reopens
	c[LevelWoreda].Status = StatusRejected
	assert.False(t, c.CanEditOrDelete())
}

func TestCanConfirmDelivery(t *testing.T) {
	c := NewChain()
	assert.False(t, c.CanConfirmDelivery())

	c[LevelKebele].Status = StatusApproved
	assert.False(t, c.CanConfirmDelivery())

	c[LevelWoreda].Status = StatusAccepted
	assert.True(t, c.CanConfirmDelivery())

	level, ok := c.AcceptedLevel()
	assert.True(t, ok)
	assert.Equal(t, LevelWoreda, level)
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels() {
		parsed, err := ParseLevel(l.String())
		assert.NoError(t, err)
		assert.Equal(t, l, parsed)
	}

	_, err := ParseLevel("district")
	assert.Error(t, err)
}

func TestLevelPrev(t *testing.T) {
	_, ok := LevelKebele.Prev()
	assert.False(t, ok)

	prev, ok := LevelFederal.Prev()
	assert.True(t, ok)
	assert.Equal(t, LevelRegion, prev)
}

func TestNewDecision(t *testing.T) {
	for _, s := range []string{"approved", "accepted", "rejected"} {
		d, err := NewDecision(s)
		assert.NoError(t, err)
		assert.Equal(t, Status(s), d)
	}

	_, err := NewDecision("pending")
	assert.Error(t, err, "pending is not a decision")

	_, err = NewDecision("done")
	assert.Error(t, err)
}

func TestInJurisdiction(t *testing.T) {
	farmer := Jurisdiction{Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa", Kebele: "Boru"}

	cases := []struct {
		name       string
		level      Level
		assignment Jurisdiction
		want       bool
	}{
		{"federal sees all", LevelFederal, Jurisdiction{}, true},
		{"region match", LevelRegion, Jurisdiction{Region: "Oromia"}, true},
		{"region mismatch", LevelRegion, Jurisdiction{Region: "Amhara"}, false},
		{"zone match", LevelZone, Jurisdiction{Region: "Oromia", Zone: "Arsi"}, true},
		{"zone mismatch", LevelZone, Jurisdiction{Region: "Oromia", Zone: "Bale"}, false},
		{"woreda match", LevelWoreda, Jurisdiction{Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa"}, true},
		{"woreda mismatch", LevelWoreda, Jurisdiction{Region: "Oromia", Zone: "Arsi", Woreda: "Tiyo"}, false},
		{"kebele match", LevelKebele, farmer, true},
		{"kebele mismatch", LevelKebele, Jurisdiction{Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa", Kebele: "Gonde"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InJurisdiction(tc.level, tc.assignment, farmer))
		})
	}
}

func TestLevelForRole(t *testing.T) {
	level, ok := LevelForRole(RoleWoredaAdmin)
	assert.True(t, ok)
	assert.Equal(t, LevelWoreda, level)

	_, ok = LevelForRole(RoleFarmer)
	assert.False(t, ok)
}
