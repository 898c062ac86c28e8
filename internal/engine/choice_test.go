package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynaform/internal/model"
)

const countriesXML = `<?xml version="1.0"?>
<countries>
  <country code="US"><name>United States</name></country>
  <country code="CA"><name>Canada</name></country>
  <country code="MX"><name>Mexico</name></country>
</countries>`

const statesJSON = `{"states": [
  {"abbr": "OR", "name": "Oregon"},
  {"abbr": "WA", "name": "Washington"}
]}`

type memSourceCache struct {
	data map[string][]byte
}

func (c *memSourceCache) Get(_ context.Context, source string) ([]byte, error) {
	return c.data[source], nil
}

func (c *memSourceCache) Set(_ context.Context, source string, body []byte) error {
	c.data[source] = body
	return nil
}

func TestParseChoiceContent(t *testing.T) {
	assert.Equal(t, []model.Choice{{Label: "A", Value: "1"}, {Label: "B", Value: "0"}}, ParseChoiceContent("1;A\n0;B"))
	assert.Equal(t,
		[]model.Choice{{Label: "Red", Value: "red"}, {Label: "plain", Value: "plain"}},
		ParseChoiceContent("\n red ; Red \r\n\nplain\n"))
	assert.Empty(t, ParseChoiceContent(""))
}

func TestExtractChoicesXML(t *testing.T) {
	tests := []struct {
		name      string
		textPath  string
		valuePath string
		want      []model.Choice
	}{
		{
			name: "relative path with attribute value", textPath: "country/name", valuePath: "country/@code",
			want: []model.Choice{{Label: "United States", Value: "US"}, {Label: "Canada", Value: "CA"}, {Label: "Mexico", Value: "MX"}},
		},
		{
			name: "path from the root element", textPath: "countries/country/name", valuePath: "countries/country/@code",
			want: []model.Choice{{Label: "United States", Value: "US"}, {Label: "Canada", Value: "CA"}, {Label: "Mexico", Value: "MX"}},
		},
		{
			name: "descendant search without value path", textPath: "//name",
			want: []model.Choice{{Label: "United States", Value: "United States"}, {Label: "Canada", Value: "Canada"}, {Label: "Mexico", Value: "Mexico"}},
		},
		{
			name: "predicate", textPath: "country[@code!='US']/name", valuePath: "country[@code!='US']/@code",
			want: []model.Choice{{Label: "Canada", Value: "CA"}, {Label: "Mexico", Value: "MX"}},
		},
		{
			name: "wildcard", textPath: "*/name", valuePath: "*/@code",
			want: []model.Choice{{Label: "United States", Value: "US"}, {Label: "Canada", Value: "CA"}, {Label: "Mexico", Value: "MX"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractChoices([]byte(countriesXML), tt.textPath, tt.valuePath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractChoicesJSON(t *testing.T) {
	got, err := extractChoices([]byte(statesJSON), "states/*/name", "states/*/abbr")
	require.NoError(t, err)
	assert.Equal(t, []model.Choice{{Label: "Oregon", Value: "OR"}, {Label: "Washington", Value: "WA"}}, got)

	got, err = extractChoices([]byte(statesJSON), "//name", "")
	require.NoError(t, err)
	assert.Equal(t, []model.Choice{{Label: "Oregon", Value: "Oregon"}, {Label: "Washington", Value: "Washington"}}, got)

	got, err = extractChoices([]byte(`{"a": {"label": "One", "id": "1"}, "b": {"label": "Two", "id": "2"}}`), "*/label", "*/id")
	require.NoError(t, err)
	assert.Equal(t, []model.Choice{{Label: "One", Value: "1"}, {Label: "Two", Value: "2"}}, got)
}

func TestExtractChoicesErrors(t *testing.T) {
	_, err := extractChoices([]byte(countriesXML), "", "")
	assert.Error(t, err, "missing text path")

	_, err = extractChoices([]byte(countriesXML), "country/name", "country/@missing")
	assert.Error(t, err, "count mismatch")

	_, err = extractChoices([]byte(`<a><b></a>`), "b", "")
	assert.Error(t, err)

	_, err = extractChoices([]byte(`{"broken"`), "a", "")
	assert.Error(t, err)

	_, err = extractChoices([]byte(countriesXML), "country[", "")
	assert.Error(t, err, "invalid xpath")
}

func TestChoiceResolverStyles(t *testing.T) {
	r := NewChoiceResolver("", time.Second, nil)
	for _, style := range []string{model.StyleYesNo, model.StyleAcceptance} {
		q := &model.Question{ID: style, Kind: model.KindChoice, Style: style, Choice: &model.ChoiceOptions{Content: "x;X"}}
		got, err := r.Choices(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, []model.Choice{{Label: "Yes", Value: "1"}, {Label: "No", Value: "0"}}, got)
	}

	got, err := r.Choices(context.Background(), &model.Question{ID: "none", Kind: model.KindChoice})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChoiceResolverLocalSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "countries.xml"), []byte(countriesXML), 0o644))

	r := NewChoiceResolver(dir, time.Second, nil)
	q := &model.Question{ID: "country", Kind: model.KindChoice, Choice: &model.ChoiceOptions{
		Source: "countries.xml", TextPath: "country/name", ValuePath: "country/@code",
	}}
	got, err := r.Choices(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	escape := &model.Question{ID: "escape", Kind: model.KindChoice, Choice: &model.ChoiceOptions{
		Source: "../../etc/passwd", TextPath: "x",
	}}
	got, err = r.Choices(context.Background(), escape)
	assert.ErrorIs(t, err, ErrSource)
	assert.Empty(t, got)
}

func TestChoiceResolverLocalDisabled(t *testing.T) {
	r := NewChoiceResolver("", time.Second, nil)
	q := &model.Question{ID: "country", Kind: model.KindChoice, Choice: &model.ChoiceOptions{Source: "countries.xml", TextPath: "name"}}
	got, err := r.Choices(context.Background(), q)
	assert.ErrorIs(t, err, ErrSource)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChoiceResolverRemoteSource(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/states.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(statesJSON))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cache := &memSourceCache{data: make(map[string][]byte)}
	q := &model.Question{ID: "state", Kind: model.KindChoice, Choice: &model.ChoiceOptions{
		Source: srv.URL + "/states.json", TextPath: "states/*/name", ValuePath: "states/*/abbr",
	}}

	r := NewChoiceResolver("", time.Second, cache)
	got, err := r.Choices(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []model.Choice{{Label: "Oregon", Value: "OR"}, {Label: "Washington", Value: "WA"}}, got)

	// memoized for the life of the resolver
	_, err = r.Choices(context.Background(), q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	// a new resolver reads the cached document
	_, err = NewChoiceResolver("", time.Second, cache).Choices(context.Background(), q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	broken := &model.Question{ID: "broken", Kind: model.KindChoice, Choice: &model.ChoiceOptions{
		Source: srv.URL + "/missing.json", TextPath: "x",
	}}
	got, err = r.Choices(context.Background(), broken)
	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, "broken", engErr.QuestionID)
	assert.ErrorIs(t, err, ErrSource)
	assert.Empty(t, got)
	assert.EqualValues(t, 2, hits.Load(), "no retry")
}
