package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/pkg/coretypes"
)

func strPtr(s string) *string { return &s }

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		style   string
		want    string
		wantErr bool
	}{
		{style: "", want: "auto"},
		{style: "notty", want: "notty"},
		{style: " ASCII ", want: "ascii"},
		{style: "dark", want: "dark"},
		{style: "neon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			r, err := NewRenderer(tt.style, 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, coretypes.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Style())
		})
	}
}

func TestPersonMarkdown(t *testing.T) {
	p := coretypes.Person{ID: 7, Name: "Ada", Notes: strPtr("Met at the conference"), IsActive: true, CreatedAt: "2024-01-02 10:00:00"}
	convs := []coretypes.Conversation{
		{ID: 2, PersonID: 7, Content: "Talked about engines", Context: strPtr("coffee"), CreatedAt: "2024-02-01 09:00:00"},
		{ID: 1, PersonID: 7, Content: "First hello", CreatedAt: "2024-01-02 10:05:00"},
	}
	mems := []coretypes.Memory{
		{ID: 1, PersonID: 7, Key: "job", Value: "math | poetry", Importance: 5},
		{ID: 2, PersonID: 7, Key: "pet", Value: "a cat", Importance: 2},
	}

	md := PersonMarkdown(p, convs, mems)

	assert.Contains(t, md, "# Ada\n")
	assert.Contains(t, md, "*#7, active, added 2024-01-02 10:00:00*")
	assert.Contains(t, md, "Met at the conference")
	assert.Contains(t, md, `| job | math \| poetry | ★★★★★ |`)
	assert.Contains(t, md, "| pet | a cat | ★★☆☆☆ |")
	assert.Contains(t, md, "> coffee")
	assert.Less(t, strings.Index(md, "Talked about engines"), strings.Index(md, "First hello"))
	assert.Less(t, strings.Index(md, "## Memories"), strings.Index(md, "## Conversations"))
}

func TestPersonMarkdown_Empty(t *testing.T) {
	md := PersonMarkdown(coretypes.Person{ID: 1, Name: "Bob"}, nil, nil)

	assert.Contains(t, md, "inactive")
	assert.Contains(t, md, "_No memories yet._")
	assert.Contains(t, md, "_No conversations yet._")
}

func TestRenderer_Person(t *testing.T) {
	r, err := NewRenderer("notty", 60)
	require.NoError(t, err)

	out, err := r.Person(coretypes.Person{ID: 1, Name: "Grace", IsActive: true}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace")
	assert.Contains(t, out, "Memories")
}

func TestStatus(t *testing.T) {
	assert.Contains(t, Status("Mock", true), "available")
	assert.Contains(t, Status("Mock", false), "unavailable")
	assert.Contains(t, Status("Mock", true), "Mock")
}
