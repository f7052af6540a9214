package config

import "gopkg.in/yaml.v3"

// RefreshDoc is the declared TimePoint: {every: duration} or {at: "HH:MM"}.
type RefreshDoc struct {
	Every string `yaml:"every,omitempty"`
	At    string `yaml:"at,omitempty"`
}

// SourceDoc is a tag-keyed single-entry map naming which source kind
// this task uses, e.g. {http: {url: "..."}}. Unknown keys inside it are
// rejected like anywhere else in the job document.
type SourceDoc struct {
	HTTP    *HTTPSourceDoc    `yaml:"http,omitempty"`
	File    *FileSourceDoc    `yaml:"file,omitempty"`
	Email   *EmailSourceDoc   `yaml:"email,omitempty"`
	Twitter *TwitterSourceDoc `yaml:"twitter,omitempty"`
	Reddit  *RedditSourceDoc  `yaml:"reddit,omitempty"`
}

type HTTPSourceDoc struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

type FileSourceDoc struct {
	Path string `yaml:"path"`
}

type EmailFilterDoc struct {
	Sender          string   `yaml:"sender,omitempty"`
	Subjects        []string `yaml:"subjects,omitempty"`
	ExcludeSubjects []string `yaml:"exclude_subjects,omitempty"`
}

type EmailSourceDoc struct {
	Name         string          `yaml:"name"`
	IMAP         string          `yaml:"imap"`
	Account      string          `yaml:"email"`
	GoogleOAuth2 string          `yaml:"google_oauth2_handle,omitempty"`
	Filter       *EmailFilterDoc `yaml:"filter,omitempty"`
	Remove       bool            `yaml:"remove,omitempty"`
	Footer       string          `yaml:"footer,omitempty"`
}

type TwitterSourceDoc struct {
	Query string `yaml:"query"`
}

type RedditSourceDoc struct {
	Subreddit string `yaml:"subreddit"`
}

// ActionDoc is a tag-keyed single-entry map: exactly one of the
// fields below is populated, matching one `process` list entry.
type ActionDoc struct {
	Regex     *RegexActionDoc  `yaml:"regex,omitempty"`
	Html      *HTMLActionDoc   `yaml:"html,omitempty"`
	Json      *JSONActionDoc   `yaml:"json,omitempty"`
	Feed      *struct{}        `yaml:"feed,omitempty"`
	UseRaw    *UseRawDoc       `yaml:"use_raw_contents,omitempty"`
	Http      *struct{}        `yaml:"http,omitempty"`
	Trim      *FieldRefDoc     `yaml:"trim,omitempty"`
	Caps      *FieldRefDoc     `yaml:"caps,omitempty"`
	Shorten   *ShortenDoc      `yaml:"shorten,omitempty"`
	UseAs     *UseAsDoc        `yaml:"use_as,omitempty"`
}

// UseAsDoc declares {field, from}: field is rewritten with whatever
// from currently holds.
type UseAsDoc struct {
	Field string `yaml:"field"`
	From  string `yaml:"from"`
}

type FieldRefDoc struct {
	Field string `yaml:"field"`
}

type ShortenDoc struct {
	Field string `yaml:"field"`
	Len   int    `yaml:"len"`
}

type UseRawDoc struct {
	Field string `yaml:"field"`
}

// RegexActionDoc is RegexOp's declared form: Action names which of
// find/extract/replace this is.
type RegexActionDoc struct {
	Re     string             `yaml:"re"`
	Action RegexVariantDoc    `yaml:"action"`
}

type RegexVariantDoc struct {
	Find    *RegexFindDoc    `yaml:"find,omitempty"`
	Extract *RegexExtractDoc `yaml:"extract,omitempty"`
	Replace *RegexReplaceDoc `yaml:"replace,omitempty"`
}

type RegexFindDoc struct {
	InField string `yaml:"in_field"`
}

type RegexExtractDoc struct {
	FromField             string `yaml:"from_field"`
	PassthroughIfNotFound bool   `yaml:"passthrough_if_not_found,omitempty"`
}

type RegexReplaceDoc struct {
	InField string `yaml:"in_field"`
	With    string `yaml:"with"`
}

// ElementQueryDoc mirrors htmlx.ElementQuery's declared form.
type ElementQueryDoc struct {
	Tag    string            `yaml:"tag,omitempty"`
	Class  string            `yaml:"class,omitempty"`
	Attr   map[string]string `yaml:"attr,omitempty"`
	Ignore []ElementQueryDoc `yaml:"ignore,omitempty"`
}

type ElementDataQueryDoc struct {
	Item        []ElementQueryDoc `yaml:"item,omitempty"`
	Location    string            `yaml:"location"` // "text" | "attr"
	Attr        string            `yaml:"attr_name,omitempty"`
	Optional    bool              `yaml:"optional,omitempty"`
	Re          string            `yaml:"re,omitempty"`
	ReplaceWith string            `yaml:"replace_with,omitempty"`
}

// UnmarshalYAML expands the raw-string shorthand for "text of this
// tag" (e.g. `title: h1`) to the full form before decoding normally,
// so most html specs never need to spell out item/location.
func (d *ElementDataQueryDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Item = []ElementQueryDoc{{Tag: value.Value}}
		d.Location = "text"
		return nil
	}

	type plain ElementDataQueryDoc
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = ElementDataQueryDoc(p)
	return nil
}

type HTMLActionDoc struct {
	Items []ElementQueryDoc               `yaml:"items"`
	Title *ElementDataQueryDoc            `yaml:"title,omitempty"`
	Body  *ElementDataQueryDoc            `yaml:"body,omitempty"`
	Link  *ElementDataQueryDoc            `yaml:"link,omitempty"`
	ID    *ElementDataQueryDoc            `yaml:"id,omitempty"`
}

type JSONActionDoc struct {
	Items  string `yaml:"items"`
	Title  string `yaml:"title,omitempty"`
	Body   string `yaml:"body,omitempty"`
	Link   string `yaml:"link,omitempty"`
	ID     string `yaml:"id,omitempty"`
}

// SinkDoc is a tag-keyed single-entry map naming the sink kind.
type SinkDoc struct {
	Telegram *TelegramSinkDoc  `yaml:"telegram,omitempty"`
	NATS     *EventBusSinkDoc  `yaml:"eventbus,omitempty"`
}

type TelegramSinkDoc struct {
	ChatID       int64  `yaml:"chat_id"`
	LinkLocation string `yaml:"link_location,omitempty"` // "prefer_title" | "bottom"
}

type EventBusSinkDoc struct {
	NATSURL string `yaml:"nats_url"`
}

// TaskDoc: { tag?, source, actions?, entry_to_msg_map? }.
type TaskDoc struct {
	Tag                  string      `yaml:"tag,omitempty"`
	Source               *SourceDoc  `yaml:"source,omitempty"`
	Process              []ActionDoc `yaml:"process,omitempty"`
	EntryToMsgMapEnabled *bool       `yaml:"entry_to_msg_map_enabled,omitempty"`
	Disabled             bool        `yaml:"disabled,omitempty"`
}

// JobDoc: { read_filter_type?, tag?, source?, process?, entry_to_msg_map_enabled?, sink?, tasks?, refresh?, disabled?, templates? }.
type JobDoc struct {
	ReadFilterType       string             `yaml:"read_filter_type,omitempty"`
	Tag                  string             `yaml:"tag,omitempty"`
	Source               *SourceDoc         `yaml:"source,omitempty"`
	Process              []ActionDoc        `yaml:"process,omitempty"`
	EntryToMsgMapEnabled *bool              `yaml:"entry_to_msg_map_enabled,omitempty"`
	Sink                 *SinkDoc           `yaml:"sink,omitempty"`
	Tasks                map[string]TaskDoc `yaml:"tasks,omitempty"`
	Refresh              *RefreshDoc        `yaml:"refresh,omitempty"`
	Disabled             bool               `yaml:"disabled,omitempty"`
	Templates            []string           `yaml:"templates,omitempty"`
	// Filter declares job-wide exclusion rules applied once per tick,
	// before any task's own process pipeline runs. Each entry must
	// decode to a filter-producing action (currently: regex find).
	Filter []ActionDoc `yaml:"filter,omitempty"`
}
