package suggest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []Candidate{
	{Kind: KindSkill, Name: "unity-map-builder", Description: "Build Unity maps from JSON specs", Triggers: []string{"unity", "map", "floor plan"}},
	{Kind: KindSkill, Name: "project-docs-manager", Description: "Manage project documentation\nLonger text"},
	{Kind: KindAgent, Name: "sql-reviewer", Description: "Reviews SQL", Triggers: []string{"sql", "query", "N+1"}},
	{Kind: KindAgent, Name: "map-reviewer", Triggers: []string{"map"}},
}

func names(s []Suggestion) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		out = append(out, x.Name)
	}
	return out
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want []string
	}{
		{"triggers", Candidate{Name: "x", Triggers: []string{"SQL", "sql", "Floor Plan"}}, []string{"sql", "floor plan"}},
		{"name words", Candidate{Name: "project-docs-manager"}, []string{"project", "docs", "manager"}},
		{"punctuation trigger", Candidate{Triggers: []string{"N+1", "  "}}, []string{"n 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.c.Keywords()); diff != "" {
				t.Errorf("Keywords() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRank(t *testing.T) {
	got := Rank("Please build a Unity map from this floor-plan", catalog, Options{Limit: 3, MinScore: 1})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"unity-map-builder", "map-reviewer"}, names(got))
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, []string{"unity", "map", "floor plan"}, got[0].Matched)
	assert.Equal(t, 1, got[1].Score)
}

func TestRank_WholeWordsOnly(t *testing.T) {
	got := Rank("the sequel to mapping docsify", catalog, Options{})
	assert.Empty(t, got)

	got = Rank("update the project docs", catalog, Options{})
	assert.Equal(t, []string{"project-docs-manager"}, names(got))
	assert.Equal(t, 2, got[0].Score)
}

func TestRank_CaseInsensitive(t *testing.T) {
	got := Rank("Fix this SQL QUERY with an n+1 problem", catalog, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "sql-reviewer", got[0].Name)
	assert.Equal(t, 3, got[0].Score)
}

func TestRank_TieBrokenByName(t *testing.T) {
	cands := []Candidate{
		{Kind: KindAgent, Name: "zeta", Triggers: []string{"deploy"}},
		{Kind: KindSkill, Name: "alpha", Triggers: []string{"deploy"}},
	}
	got := Rank("deploy it", cands, Options{})
	assert.Equal(t, []string{"alpha", "zeta"}, names(got))
}

func TestRank_LimitAndMinScore(t *testing.T) {
	prompt := "unity map sql query"

	got := Rank(prompt, catalog, Options{Limit: 1})
	assert.Equal(t, []string{"sql-reviewer"}, names(got))

	got = Rank(prompt, catalog, Options{MinScore: 2})
	assert.Equal(t, []string{"sql-reviewer", "unity-map-builder"}, names(got))

	got = Rank(prompt, catalog, Options{MinScore: 0})
	assert.Len(t, got, 3, "zero min score still requires a match")
}

func TestFormat(t *testing.T) {
	assert.Empty(t, Format(nil))

	got := Format(Rank("update project docs", catalog, Options{}))
	want := "Relevant plugin resources for this request:\n" +
		"- skill project-docs-manager: Manage project documentation (matched: project, docs)"
	assert.Equal(t, want, got)
}
