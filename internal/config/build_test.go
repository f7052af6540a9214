package config_test

import (
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/config"
	"github.com/arc-self/fetchd/internal/entry"
)

// fakeExternalData is a hand-rolled ExternalData double: one in-memory
// map per category, no network, no filesystem.
type fakeExternalData struct {
	secrets   map[string]string
	templates map[string][]byte
	saved     map[string][]byte
}

func newFakeExternalData() *fakeExternalData {
	return &fakeExternalData{
		secrets:   map[string]string{},
		templates: map[string][]byte{},
		saved:     map[string][]byte{},
	}
}

func (f *fakeExternalData) TwitterBearerToken() (string, error) { return f.secrets["twitter"], nil }
func (f *fakeExternalData) TelegramBotToken() (string, error)   { return f.secrets["telegram"], nil }
func (f *fakeExternalData) IMAPPassword(account string) (string, error) {
	return f.secrets["imap:"+account], nil
}
func (f *fakeExternalData) GoogleOAuth2(handle string) (string, string, string, error) {
	return "", "", "", fmt.Errorf("not configured in test: %s", handle)
}
func (f *fakeExternalData) LoadReadFilter(name string) ([]byte, bool, error) {
	data, ok := f.saved["readfilter:"+name]
	return data, ok, nil
}
func (f *fakeExternalData) SaveReadFilter(name string, data []byte) error {
	f.saved["readfilter:"+name] = data
	return nil
}
func (f *fakeExternalData) LoadMsgMap(name string) ([]byte, bool, error) {
	data, ok := f.saved["msgmap:"+name]
	return data, ok, nil
}
func (f *fakeExternalData) SaveMsgMap(name string, data []byte) error {
	f.saved["msgmap:"+name] = data
	return nil
}
func (f *fakeExternalData) LoadTemplate(name string) ([]byte, error) {
	data, ok := f.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return data, nil
}
func (f *fakeExternalData) JetStream(url string) (nats.JetStreamContext, error) {
	return nil, fmt.Errorf("jetstream not available in test")
}

func TestBuildJob_HTTPSourceWithRegexFilter(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
process:
  - regex:
      re: "skip-me"
      action:
        find:
          in_field: title
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	job, err := config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, job.Tasks, 1)
	assert.Equal(t, "example", job.Tasks[0].Name)
}

func TestBuildJob_UnknownSourceKind_IsConfigError(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source: {}
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	_, err = config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.Error(t, err)
}

func TestBuildJob_JobFilterMustBeFilterProducing(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
filter:
  - trim:
      field: title
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	_, err = config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.Error(t, err)
}

func TestBuildJob_JobFilterAppliedToEveryTask(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
filter:
  - regex:
      re: "blocked"
      action:
        find:
          in_field: title
tasks:
  a:
    source:
      http:
        url: "https://example.invalid/a"
  b:
    source:
      http:
        url: "https://example.invalid/b"
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	job, err := config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, job.Tasks, 2)
	for _, tk := range job.Tasks {
		assert.Len(t, tk.PreFilter, 1)
	}
}

func TestBuildJob_ReadFilterPersistsThroughExternalData(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
`)
	ext := newFakeExternalData()
	doc, err := config.DecodeJobDocument(raw, ext)
	require.NoError(t, err)

	job, err := config.BuildJob("example", doc, ext, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, job.Tasks, 1)

	require.NoError(t, job.Tasks[0].ReadFilter.MarkAsRead("entry-1"))
	assert.NotEmpty(t, ext.saved["readfilter:example"])
}

func TestBuildJob_UseAsCopiesFieldOnBuild(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
process:
  - use_as:
      field: title
      from: link
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	job, err := config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, job.Tasks, 1)

	in := entry.Entry{ID: "1"}
	require.NoError(t, in.SetField(entry.FieldLink, "https://example.com/post"))
	out := job.Tasks[0].Pipeline.Run([]entry.Entry{in}, zap.NewNop())
	require.Len(t, out, 1)
	assert.Equal(t, "https://example.com/post", out[0].Msg.Title)
}

func TestBuildJob_UseAsUnknownField_IsConfigError(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
process:
  - use_as:
      field: title
      from: nonsense
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	_, err = config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.Error(t, err)
}

func TestBuildJob_HTMLBadPostProcessRegex_IsConfigErrorAtBuildTime(t *testing.T) {
	raw := []byte(`
refresh:
  every: 5m
source:
  http:
    url: "https://example.invalid/feed"
process:
  - html:
      items:
        - tag: article
      title:
        item:
          - tag: h1
        location: text
        re: "(unclosed"
`)
	doc, err := config.DecodeJobDocument(raw, newFakeExternalData())
	require.NoError(t, err)

	_, err = config.BuildJob("example", doc, newFakeExternalData(), zap.NewNop())
	require.Error(t, err, "a bad post-process regex must fail the build, not surface later as a dropped entry")
}
