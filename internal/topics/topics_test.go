// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

func TestParseTriple(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantCodes  []string
		wantIssues int
	}{
		{
			name:      "well formed lines",
			input:     "a;Explain X;query x\nb;Explain Y;query y\n",
			wantCodes: []string{"a", "b"},
		},
		{
			name:      "comments and blank lines ignored",
			input:     "# header\n\n  \na;Explain X;query x\n   # indented comment\nb;Explain Y;query y\n\n",
			wantCodes: []string{"a", "b"},
		},
		{
			name:       "wrong field count skipped",
			input:      "a;Explain X\nb;Explain Y;query y\nc;one;two;three\n",
			wantCodes:  []string{"b"},
			wantIssues: 2,
		},
		{
			name:       "empty field skipped",
			input:      "a; ;query x\n;Explain Y;query y\nc;Explain Z;query z\n",
			wantCodes:  []string{"c"},
			wantIssues: 2,
		},
		{
			name:       "duplicate code keeps first",
			input:      "a;Explain X;query x\na;Explain again;query again\n",
			wantCodes:  []string{"a"},
			wantIssues: 1,
		},
		{
			name:       "code unusable as file name",
			input:      "../up;Explain X;query x\na/b;Explain Y;query y\n..;Explain Z;query z\nok;Explain W;query w\n",
			wantCodes:  []string{"ok"},
			wantIssues: 3,
		},
		{
			name:  "only comments",
			input: "# one\n# two\n",
		},
		{
			name:      "byte order mark stripped",
			input:     "\ufeffa;Explain X;query x\n",
			wantCodes: []string{"a"},
		},
		{
			name:      "byte order mark before indented comment",
			input:     "\ufeff  # note\na;Explain X;query x\n",
			wantCodes: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(strings.NewReader(tt.input), types.TopicFormatTriple)
			require.NoError(t, err)

			var codes []string
			for _, topic := range res.Topics {
				codes = append(codes, topic.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
			assert.Len(t, res.Issues, tt.wantIssues)
		})
	}
}

func TestParseTrimsFields(t *testing.T) {
	res, err := Parse(strings.NewReader("  prf ;  Explain pseudo-relevance feedback\t; pseudo relevance feedback diagram  \n"), types.TopicFormatTriple)
	require.NoError(t, err)
	require.Len(t, res.Topics, 1)
	assert.Equal(t, types.Topic{
		Code:          "prf",
		DetailedQuery: "Explain pseudo-relevance feedback",
		ImageQuery:    "pseudo relevance feedback diagram",
	}, res.Topics[0])
}

func TestParseCountsWellFormedLines(t *testing.T) {
	var b strings.Builder
	n, k := 17, 9
	for i := 0; i < n; i++ {
		b.WriteString("code")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(";query;image\n")
		if i < k {
			if i%2 == 0 {
				b.WriteString("# comment\n")
			} else {
				b.WriteString("\n")
			}
		}
	}
	res, err := Parse(strings.NewReader(b.String()), types.TopicFormatTriple)
	require.NoError(t, err)
	assert.Len(t, res.Topics, n)
	assert.Empty(t, res.Issues)
}

func TestParseIssueLineNumbers(t *testing.T) {
	res, err := Parse(strings.NewReader("# c\na;b;c\nbroken\n"), types.TopicFormatTriple)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 3, res.Issues[0].Line)
	assert.Contains(t, res.Issues[0].String(), "expected 3 fields, got 1")
}

func TestParseSingle(t *testing.T) {
	res, err := Parse(strings.NewReader("Tema/s/slashes:and:colons?\n# skip\nColBERT late interaction\n"), types.TopicFormatSingle)
	require.NoError(t, err)
	require.Len(t, res.Topics, 2)

	assert.Equal(t, "Tema_s_slashes_and_colons_", res.Topics[0].Code)
	assert.Equal(t, "Tema/s/slashes:and:colons?", res.Topics[0].DetailedQuery)
	assert.Equal(t, "Tema/s/slashes:and:colons?", res.Topics[0].ImageQuery)
	assert.Equal(t, "ColBERT late interaction", res.Topics[1].Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Plain topic", "Plain topic"},
		{"a/b/c", "a_b_c"},
		{`a\b:c*d?e"f<g>h|i`, "a_b_c_d_e_f_g_h_i"},
		{"Тема:с:двоеточиями", "Тема_с_двоеточиями"},
		{strings.Repeat("?", 150), strings.Repeat("_", MaxFilenameLength)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.txt")
	require.NoError(t, os.WriteFile(path, []byte("a;Explain X;query x\n"), 0o644))

	res, err := ReadFile(path, types.TopicFormatTriple)
	require.NoError(t, err)
	assert.Len(t, res.Topics, 1)

	_, err = ReadFile(filepath.Join(dir, "missing.txt"), types.TopicFormatTriple)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening topics file")
}
