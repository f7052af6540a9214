// build.go turns a decoded JobDoc into a runnable task.Job: every
// source/sink/action entity resolves its credentials and child
// structures through the ExternalData capability, failing with a
// ConfigError when something it needs is unavailable. Grounded on
// telegram.rs's decode_from_conf pattern of resolving config against an
// external capability object rather than reading secrets directly.
package config

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/action"
	"github.com/arc-self/fetchd/internal/action/field"
	"github.com/arc-self/fetchd/internal/action/filter"
	"github.com/arc-self/fetchd/internal/action/htmlx"
	"github.com/arc-self/fetchd/internal/action/jsonx"
	"github.com/arc-self/fetchd/internal/action/regexop"
	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
	"github.com/arc-self/fetchd/internal/msgmap"
	"github.com/arc-self/fetchd/internal/readfilter"
	"github.com/arc-self/fetchd/internal/sink"
	"github.com/arc-self/fetchd/internal/source"
	"github.com/arc-self/fetchd/internal/task"
)

const defaultUserAgent = "fetchd/1.0 (+https://github.com/arc-self/fetchd)"

// BuildJob decodes doc into a runnable task.Job, resolving every
// source/sink/action against external and merging job-level default
// fields into sub-tasks that don't override them.
func BuildJob(name string, doc *JobDoc, external ExternalData, log *zap.Logger) (*task.Job, error) {
	refresh, err := decodeRefresh(doc.Refresh)
	if err != nil {
		return nil, err
	}

	kind := readfilter.Kind(doc.ReadFilterType)
	if kind == "" {
		kind = readfilter.KindNotPresent
	}
	rf, err := loadOrCreateReadFilter(name, kind, external)
	if err != nil {
		return nil, err
	}

	preFilter, err := buildJobFilter(doc.Filter)
	if err != nil {
		return nil, err
	}

	taskDocs := doc.Tasks
	if len(taskDocs) == 0 {
		taskDocs = map[string]TaskDoc{name: {
			Tag:                  doc.Tag,
			Source:               doc.Source,
			Process:              doc.Process,
			EntryToMsgMapEnabled: doc.EntryToMsgMapEnabled,
		}}
	}

	var tasks []*task.Task
	for taskName, td := range taskDocs {
		merged := mergeDefaultTask(doc, td)
		if merged.Disabled {
			continue
		}
		t, err := buildTask(name, taskName, merged, doc.Sink, rf, external, log)
		if err != nil {
			return nil, err
		}
		t.PreFilter = preFilter
		tasks = append(tasks, t)
	}

	return &task.Job{Name: name, Tasks: tasks, Refresh: refresh, Log: log}, nil
}

// mergeDefaultTask merges the job-level fields into a sub-task that
// doesn't declare its own.
func mergeDefaultTask(doc *JobDoc, td TaskDoc) TaskDoc {
	if td.Tag == "" {
		td.Tag = doc.Tag
	}
	if td.Source == nil {
		td.Source = doc.Source
	}
	if len(td.Process) == 0 {
		td.Process = doc.Process
	}
	if td.EntryToMsgMapEnabled == nil {
		td.EntryToMsgMapEnabled = doc.EntryToMsgMapEnabled
	}
	return td
}

// buildJobFilter compiles a job's filter: list into runtime filters,
// rejecting any entry that doesn't produce a Filter step — a job-level
// pre-pass can only ever shrink the entry list, never transform it.
func buildJobFilter(docs []ActionDoc) ([]filter.Filter, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	steps, err := buildSteps(docs)
	if err != nil {
		return nil, err
	}
	out := make([]filter.Filter, 0, len(steps))
	for _, s := range steps {
		if s.Filter == nil {
			return nil, ferr.NewConfigError("job filter", fmt.Errorf("filter entries must be filter-producing actions"))
		}
		out = append(out, *s.Filter)
	}
	return out, nil
}

func decodeRefresh(r *RefreshDoc) (task.Refresh, error) {
	if r == nil {
		return task.Refresh{}, ferr.NewConfigError("refresh", fmt.Errorf("refresh is required"))
	}
	if r.Every != "" {
		d, err := time.ParseDuration(r.Every)
		if err != nil {
			return task.Refresh{}, ferr.NewConfigError("refresh.every", err)
		}
		return task.Refresh{Every: d}, nil
	}
	if r.At != "" {
		return task.Refresh{At: r.At}, nil
	}
	return task.Refresh{}, ferr.NewConfigError("refresh", fmt.Errorf("neither every nor at set"))
}

// readFilterSaveSink and msgMapSaveSink adapt ExternalData's
// named-save methods to the narrow SaveSink interface each persisted
// type depends on, so neither package needs to know how or where its
// state ends up.
type readFilterSaveSink struct {
	external ExternalData
	name     string
}

func (s readFilterSaveSink) Save(data []byte) error {
	return s.external.SaveReadFilter(s.name, data)
}

type msgMapSaveSink struct {
	external ExternalData
	name     string
}

func (s msgMapSaveSink) Save(data []byte) error {
	return s.external.SaveMsgMap(s.name, data)
}

func loadOrCreateReadFilter(name string, kind readfilter.Kind, external ExternalData) (*readfilter.ReadFilter, error) {
	saver := readFilterSaveSink{external: external, name: name}
	data, found, err := external.LoadReadFilter(name)
	if err != nil {
		return nil, ferr.NewConfigError("read-filter: load "+name, err)
	}
	if !found {
		return readfilter.New(kind, saver)
	}
	return readfilter.Load(data, kind, saver)
}

func buildTask(jobName, taskName string, td TaskDoc, sinkDoc *SinkDoc, rf *readfilter.ReadFilter, external ExternalData, log *zap.Logger) (*task.Task, error) {
	if td.Source == nil {
		return nil, ferr.NewConfigError("task "+taskName, fmt.Errorf("no source configured"))
	}
	src, err := buildSource(td.Source, external)
	if err != nil {
		return nil, err
	}

	enabled := td.EntryToMsgMapEnabled != nil && *td.EntryToMsgMapEnabled
	mm, err := loadOrCreateMsgMap(jobName, taskName, enabled, external)
	if err != nil {
		return nil, err
	}

	steps, err := buildSteps(td.Process)
	if err != nil {
		return nil, err
	}

	if sinkDoc != nil {
		sinkAction, err := buildSink(sinkDoc, jobName, taskName, td.Tag, external, log)
		if err != nil {
			return nil, err
		}
		steps = append(steps, action.Step{Sink: sinkAction})
	}

	t := &task.Task{
		Name:       taskName,
		Tag:        td.Tag,
		Source:     src,
		MsgMap:     mm,
		ReadFilter: rf,
		Log:        log,
	}
	t.Pipeline = action.Pipeline{
		Steps: steps,
		RecordSink: func(entryID string, msgID int64) error {
			return mm.Set(entryID, msgmap.MessageID(msgID))
		},
		ResolveReply: func(entryID string) (int64, bool) {
			id, ok := mm.Get(entryID)
			return int64(id), ok
		},
	}
	return t, nil
}

func loadOrCreateMsgMap(jobName, taskName string, enabled bool, external ExternalData) (*msgmap.Map, error) {
	if !enabled {
		return msgmap.New(false, nil), nil
	}
	name := jobName + "/" + taskName
	saver := msgMapSaveSink{external: external, name: name}
	data, found, err := external.LoadMsgMap(name)
	if err != nil {
		return nil, ferr.NewConfigError("entry-to-msg-map: load", err)
	}
	if !found {
		return msgmap.New(true, saver), nil
	}
	mm, err := msgmap.Load(data, true, saver)
	if err != nil {
		return nil, ferr.NewConfigError("entry-to-msg-map: decode", err)
	}
	return mm, nil
}

func buildSource(doc *SourceDoc, external ExternalData) (source.Source, error) {
	switch {
	case doc.HTTP != nil:
		ua := doc.HTTP.UserAgent
		if ua == "" {
			ua = defaultUserAgent
		}
		return source.HTTPSource{URL: doc.HTTP.URL, UserAgent: ua}, nil
	case doc.File != nil:
		return source.FileSource{Path: doc.File.Path}, nil
	case doc.Twitter != nil:
		tok, err := external.TwitterBearerToken()
		if err != nil {
			return nil, ferr.NewConfigError("twitter credentials", err)
		}
		return &source.TwitterSource{BearerToken: tok, Query: doc.Twitter.Query}, nil
	case doc.Reddit != nil:
		return &source.RedditSource{Subreddit: doc.Reddit.Subreddit, UserAgent: defaultUserAgent}, nil
	case doc.Email != nil:
		return buildEmailSource(doc.Email, external)
	default:
		return nil, ferr.NewConfigError("source", fmt.Errorf("no recognized source kind"))
	}
}

func buildEmailSource(doc *EmailSourceDoc, external ExternalData) (*source.EmailSource, error) {
	s := &source.EmailSource{
		Name:     doc.Name,
		Host:     doc.IMAP,
		Username: doc.Account,
		Remove:   doc.Remove,
		Footer:   doc.Footer,
	}
	if doc.Filter != nil {
		s.Filter = source.EmailFilter{
			Sender:          doc.Filter.Sender,
			Subjects:        doc.Filter.Subjects,
			ExcludeSubjects: doc.Filter.ExcludeSubjects,
		}
	}

	if doc.GoogleOAuth2 != "" {
		clientID, clientSecret, refreshToken, err := external.GoogleOAuth2(doc.GoogleOAuth2)
		if err != nil {
			return nil, ferr.NewConfigError("email: google oauth2 handle "+doc.GoogleOAuth2, err)
		}
		cred := &source.GoogleCredential{ClientID: clientID, ClientSecret: clientSecret, RefreshToken: refreshToken}
		s.Auth = source.EmailAuth{OAuth2: &source.OAuth2Token{Refresher: cred.Refresher}}
	} else {
		password, err := external.IMAPPassword(doc.Account)
		if err != nil {
			return nil, ferr.NewConfigError("email: password for "+doc.Account, err)
		}
		s.Auth = source.EmailAuth{Password: password}
	}
	return s, nil
}

func buildSink(doc *SinkDoc, jobName, taskName, tag string, external ExternalData, log *zap.Logger) (action.SinkAction, error) {
	switch {
	case doc.Telegram != nil:
		token, err := external.TelegramBotToken()
		if err != nil {
			return nil, ferr.NewConfigError("telegram credentials", err)
		}
		linkLoc := sink.LinkPreferTitle
		if doc.Telegram.LinkLocation == "bottom" {
			linkLoc = sink.LinkBottom
		}
		chatSink := &sink.ChatSink{
			ChatID:       doc.Telegram.ChatID,
			LinkLocation: linkLoc,
			Deliverer:    &sink.TelegramDeliverer{Token: token},
		}
		return sinkAdapter{sink: chatSink, tag: tag}, nil
	case doc.NATS != nil:
		js, err := external.JetStream(doc.NATS.NATSURL)
		if err != nil {
			return nil, ferr.NewConfigError("eventbus: connect", err)
		}
		ebSink := &sink.EventBusSink{JS: js, Log: log, Job: jobName, Task: taskName}
		if err := ebSink.ProvisionStream(); err != nil {
			return nil, ferr.NewConfigError("eventbus: provision stream", err)
		}
		return sinkAdapter{sink: ebSink, tag: tag}, nil
	default:
		return nil, ferr.NewConfigError("sink", fmt.Errorf("no recognized sink kind"))
	}
}

// sinkAdapter bridges sink.Sink's ctx-first Send signature to
// action.SinkAction's pipeline-facing one, which carries reply
// resolution as a callback instead of a pre-resolved value.
type sinkAdapter struct {
	sink sink.Sink
	tag  string
}

func (a sinkAdapter) Send(e entry.Entry, replyTo func(entryID string) (int64, bool)) (int64, bool, error) {
	var rt *sink.MessageID
	if replyTo != nil && e.ReplyTo != "" {
		if id, ok := replyTo(e.ReplyTo); ok {
			mid := sink.MessageID(id)
			rt = &mid
		}
	}
	id, err := a.sink.Send(context.Background(), e.Msg, rt, a.tag)
	if err != nil {
		return 0, false, err
	}
	return int64(id), true, nil
}

func buildSteps(docs []ActionDoc) ([]action.Step, error) {
	steps := make([]action.Step, 0, len(docs))
	for _, d := range docs {
		step, err := buildStep(d)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func buildStep(d ActionDoc) (action.Step, error) {
	switch {
	case d.Regex != nil:
		return buildRegexStep(d.Regex)
	case d.Html != nil:
		spec, err := buildHTMLSpec(d.Html)
		if err != nil {
			return action.Step{}, err
		}
		t := action.Transform{EntryOp: action.HTMLTransform{Spec: spec}}
		return action.Step{Transform: &t}, nil
	case d.Json != nil:
		t := action.Transform{EntryOp: action.JSONTransform{Spec: jsonx.ItemSpec{
			Items: d.Json.Items,
			Fields: jsonx.FieldPaths{
				Title: d.Json.Title, Body: d.Json.Body, Link: d.Json.Link, ID: d.Json.ID,
			},
		}}}
		return action.Step{Transform: &t}, nil
	case d.Feed != nil:
		t := action.Transform{EntryOp: action.FeedTransform{}}
		return action.Step{Transform: &t}, nil
	case d.UseRaw != nil:
		f, err := parseField(d.UseRaw.Field)
		if err != nil {
			return action.Step{}, err
		}
		t := action.Transform{EntryOp: action.UseRawContentsTransform{Field: f}}
		return action.Step{Transform: &t}, nil
	case d.Http != nil:
		t := action.Transform{EntryOp: action.HTTPLinkTransform{Fetch: httpLinkFetch}}
		return action.Step{Transform: &t}, nil
	case d.Trim != nil:
		f, err := parseField(d.Trim.Field)
		if err != nil {
			return action.Step{}, err
		}
		t := action.Transform{FieldOp: &action.FieldTransform{Field: f, Op: field.Trim{}}}
		return action.Step{Transform: &t}, nil
	case d.Caps != nil:
		f, err := parseField(d.Caps.Field)
		if err != nil {
			return action.Step{}, err
		}
		t := action.Transform{FieldOp: &action.FieldTransform{Field: f, Op: field.Caps{}}}
		return action.Step{Transform: &t}, nil
	case d.Shorten != nil:
		f, err := parseField(d.Shorten.Field)
		if err != nil {
			return action.Step{}, err
		}
		t := action.Transform{FieldOp: &action.FieldTransform{Field: f, Op: field.Shorten{Len: d.Shorten.Len}}}
		return action.Step{Transform: &t}, nil
	case d.UseAs != nil:
		f, err := parseField(d.UseAs.Field)
		if err != nil {
			return action.Step{}, err
		}
		from, err := parseField(d.UseAs.From)
		if err != nil {
			return action.Step{}, err
		}
		t := action.Transform{FieldOp: &action.FieldTransform{Field: f, Op: field.UseAs{SourceField: from}}}
		return action.Step{Transform: &t}, nil
	default:
		return action.Step{}, ferr.NewConfigError("process", fmt.Errorf("unrecognized action"))
	}
}

func buildRegexStep(d *RegexActionDoc) (action.Step, error) {
	re, err := regexp.Compile(d.Re)
	if err != nil {
		return action.Step{}, ferr.NewConfigError("regex: compile", err)
	}

	switch {
	case d.Action.Find != nil:
		f, err := parseField(d.Action.Find.InField)
		if err != nil {
			return action.Step{}, err
		}
		compiled := regexop.Compile(regexop.RegexOp{Variant: regexop.VariantFind, Re: re, Field: f})
		return action.Step{Filter: &filter.Filter{Retain: compiled.Filter}}, nil
	case d.Action.Extract != nil:
		f, err := parseField(d.Action.Extract.FromField)
		if err != nil {
			return action.Step{}, err
		}
		compiled := regexop.Compile(regexop.RegexOp{
			Variant: regexop.VariantExtract, Re: re, Field: f,
			PassthroughIfNotFound: d.Action.Extract.PassthroughIfNotFound,
		})
		t := action.Transform{FieldOp: &action.FieldTransform{Field: compiled.Field, Op: compiled.Operator}}
		return action.Step{Transform: &t}, nil
	case d.Action.Replace != nil:
		f, err := parseField(d.Action.Replace.InField)
		if err != nil {
			return action.Step{}, err
		}
		compiled := regexop.Compile(regexop.RegexOp{
			Variant: regexop.VariantReplace, Re: re, Field: f, Template: d.Action.Replace.With,
		})
		t := action.Transform{FieldOp: &action.FieldTransform{Field: compiled.Field, Op: compiled.Operator}}
		return action.Step{Transform: &t}, nil
	default:
		return action.Step{}, ferr.NewConfigError("regex", fmt.Errorf("action must be one of find/extract/replace"))
	}
}

func buildHTMLSpec(d *HTMLActionDoc) (htmlx.ItemSpec, error) {
	spec := htmlx.ItemSpec{Items: convertItemQuery(d.Items)}
	var err error
	if d.Title != nil {
		if spec.Title, err = convertDataQuery(d.Title); err != nil {
			return htmlx.ItemSpec{}, err
		}
	}
	if d.Body != nil {
		if spec.Body, err = convertDataQuery(d.Body); err != nil {
			return htmlx.ItemSpec{}, err
		}
	}
	if d.Link != nil {
		if spec.Link, err = convertDataQuery(d.Link); err != nil {
			return htmlx.ItemSpec{}, err
		}
	}
	if d.ID != nil {
		if spec.ID, err = convertDataQuery(d.ID); err != nil {
			return htmlx.ItemSpec{}, err
		}
	}
	return spec, nil
}

func convertItemQuery(docs []ElementQueryDoc) htmlx.ItemQuery {
	out := make(htmlx.ItemQuery, 0, len(docs))
	for _, d := range docs {
		out = append(out, convertElementQuery(d))
	}
	return out
}

func convertElementQuery(d ElementQueryDoc) htmlx.ElementQuery {
	eq := htmlx.ElementQuery{}
	switch {
	case d.Tag != "":
		eq.Kind, eq.Name = htmlx.KindTag, d.Tag
	case d.Class != "":
		eq.Kind, eq.Name = htmlx.KindClass, d.Class
	default:
		for name, val := range d.Attr {
			eq.Kind, eq.Name, eq.Value = htmlx.KindAttr, name, val
		}
	}
	for _, ig := range d.Ignore {
		eq.Ignore = append(eq.Ignore, convertElementQuery(ig))
	}
	return eq
}

func convertDataQuery(d *ElementDataQueryDoc) (*htmlx.ElementDataQuery, error) {
	loc := htmlx.LocationText
	if d.Location == "attr" {
		loc = htmlx.LocationAttr
	}
	out := &htmlx.ElementDataQuery{
		Item:     convertItemQuery(d.Item),
		Location: loc,
		AttrName: d.Attr,
		Optional: d.Optional,
	}
	if d.Re != "" {
		re, err := regexp.Compile(d.Re)
		if err != nil {
			return nil, ferr.NewConfigError("html: compile post-process regex", err)
		}
		out.PostProcess = &htmlx.PostProcess{Re: re, ReplaceWith: d.ReplaceWith}
	}
	return out, nil
}

func parseField(name string) (entry.Field, error) {
	switch name {
	case "title":
		return entry.FieldTitle, nil
	case "body":
		return entry.FieldBody, nil
	case "link":
		return entry.FieldLink, nil
	default:
		return 0, ferr.NewConfigError("field", fmt.Errorf("unknown field %q", name))
	}
}

// httpLinkFetch backs the Http follow-link transform using the same
// HTTP source the http source kind uses, so the two share status-code
// classification instead of a second hand-rolled client.
func httpLinkFetch(ctx context.Context, url string) (string, error) {
	src := source.HTTPSource{URL: url, UserAgent: defaultUserAgent}
	entries, err := src.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("http-link: empty response from %s", url)
	}
	return entries[0].RawContents, nil
}
