package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain/model"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		lead model.RawLead
		want string
	}{
		{
			name: "phone wins over website and address",
			lead: model.RawLead{
				Name:    "  Blue   Bottle  Coffee ",
				Phone:   "+1 (212) 555-0100",
				Website: "https://bluebottle.com",
				Address: "123 Main St",
			},
			want: "blue bottle coffee|p:2125550100",
		},
		{
			name: "website domain when phone absent",
			lead: model.RawLead{
				Name:    "Blue Bottle Coffee",
				Website: "https://www.bluebottle.com/cafes/nyc",
			},
			want: "blue bottle coffee|w:bluebottle.com",
		},
		{
			name: "bare domain without scheme",
			lead: model.RawLead{Name: "Acme", Website: "acme.io"},
			want: "acme|w:acme.io",
		},
		{
			name: "address when phone and website absent",
			lead: model.RawLead{Name: "Acme", Address: "123  Main   St"},
			want: "acme|a:123 main st",
		},
		{
			name: "name only",
			lead: model.RawLead{Name: "Acme"},
			want: "acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(&tt.lead))
		})
	}
}

func TestKeyPhoneFormattingCollides(t *testing.T) {
	a := model.RawLead{Name: "Acme", Phone: "+1 212-555-0100"}
	b := model.RawLead{Name: "ACME", Phone: "(212) 555 0100"}
	assert.Equal(t, Key(&a), Key(&b))
}

func TestFilter(t *testing.T) {
	batch := []*model.RawLead{
		{Name: "Alpha", Phone: "212-555-0001"},
		{Name: "Beta", Phone: "212-555-0002"},
		{Name: "alpha", Phone: "+1 (212) 555-0001"}, // duplicate of first by phone
		{Name: "Gamma"},
		{Name: ""}, // unusable
	}

	kept := Filter(nil, batch)
	require.Len(t, kept, 3)
	assert.Equal(t, "Alpha", kept[0].Name)
	assert.Equal(t, "Beta", kept[1].Name)
	assert.Equal(t, "Gamma", kept[2].Name)
}

func TestFilterAgainstExisting(t *testing.T) {
	existing := KeySet([]string{"alpha|p:2125550001"})
	batch := []*model.RawLead{
		{Name: "Alpha", Phone: "212-555-0001"},
		{Name: "Delta", Phone: "212-555-0004"},
	}

	kept := Filter(existing, batch)
	require.Len(t, kept, 1)
	assert.Equal(t, "Delta", kept[0].Name)

	// The existing set must not be mutated by filtering.
	assert.Len(t, existing, 1)
}

func TestFilterDeterministic(t *testing.T) {
	batch := []*model.RawLead{
		{Name: "One", Phone: "111"},
		{Name: "Two", Phone: "222"},
		{Name: "One", Phone: "111"},
		{Name: "Three", Website: "three.example.com"},
	}

	first := Filter(nil, batch)
	second := Filter(nil, batch)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}

func TestFilterIdempotent(t *testing.T) {
	batch := []*model.RawLead{
		{Name: "One", Phone: "111"},
		{Name: "Two", Phone: "222"},
	}

	kept := Filter(nil, batch)
	require.Len(t, kept, 2)

	// Feeding the kept subset back with its own keys as existing admits nothing.
	existing := make(map[string]struct{})
	for _, l := range kept {
		existing[Key(l)] = struct{}{}
	}
	again := Filter(existing, kept)
	assert.Empty(t, again)
}
