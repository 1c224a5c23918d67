package dispatch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"amd-webhook/internal/profile"
	"amd-webhook/internal/webhook"
)

// TimestampLayout is used for every console and status timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

const otherBucket = "Other"

// ErrDurationNotNumeric is returned alongside a complete report when the AMD
// duration cannot be converted to seconds.
var ErrDurationNotNumeric = errors.New("dispatch: amd duration is not numeric")

// amdDetailFields are echoed by the /handle_amd report when present.
var amdDetailFields = []string{
	webhook.FieldMachineDetectionDuration,
	webhook.FieldMachineDetectionSilenceTimeout,
	webhook.FieldMachineDetectionSpeechThreshold,
	webhook.FieldMachineDetectionSpeechEndThreshold,
}

// bucketOrder names the report categories in display order.
// The AMD bucket takes its name from the report style.
var bucketOrder = []struct {
	group webhook.Group
	name  string
}{
	{webhook.GroupCall, "Call Information"},
	{webhook.GroupAMD, ""},
	{webhook.GroupCallback, "Callback Information"},
	{webhook.GroupGeo, "Geographic Information"},
}

// Report is an ordered block of console lines.
type Report struct {
	Lines []string
}

// String joins the lines, newline-terminated, so a report can go out in one write.
func (r Report) String() string {
	return strings.Join(r.Lines, "\n") + "\n"
}

type bucket struct {
	name   string
	labels []string
}

// Reporter formats console reports for one profile.
// It holds only immutable tables and is safe for concurrent use.
type Reporter struct {
	style    profile.ReportStyle
	norm     *webhook.Normalizer
	buckets  []bucket
	bucketOf map[string]int
}

func NewReporter(style profile.ReportStyle, norm *webhook.Normalizer) *Reporter {
	r := &Reporter{style: style, norm: norm, bucketOf: map[string]int{}}
	index := map[webhook.Group]int{}
	for _, bo := range bucketOrder {
		name := bo.name
		if name == "" {
			name = style.AMDBucket
		}
		index[bo.group] = len(r.buckets)
		r.buckets = append(r.buckets, bucket{name: name})
	}
	for _, f := range webhook.Fields() {
		i, ok := index[f.Group]
		if !ok {
			continue
		}
		label := norm.DisplayName(f.Name)
		r.buckets[i].labels = append(r.buckets[i].labels, label)
		r.bucketOf[label] = i
	}
	return r
}

// WebhookInput is everything the /webhook report needs.
type WebhookInput struct {
	Type   webhook.Type
	Method webhook.Method
	At     time.Time
	Record webhook.Record
}

// Webhook renders the categorized report. The report is always complete; a
// non-nil error (ErrDurationNotNumeric) only means the derived seconds were skipped.
func (r *Reporter) Webhook(in WebhookInput) (Report, error) {
	var lines []string
	wide := strings.Repeat("=", r.style.Width)
	rule := strings.Repeat("-", r.style.RuleWidth)

	lines = append(lines,
		"",
		wide,
		fmt.Sprintf("--- %s (%s) [%s] ---", r.style.Title, in.Type, in.Method),
		"Timestamp: "+in.At.Format(TimestampLayout),
		wide,
	)

	info, err := r.keyInfo(in.Record)
	for _, l := range info {
		lines = append(lines, ">> "+l)
	}

	lines = append(lines, "", rule, r.style.DetailHeading, rule)
	for _, c := range r.Categorize(in.Record) {
		lines = append(lines, "", "["+c.Name+"]:")
		for _, e := range c.Entries {
			lines = append(lines, "   "+e.Label+": "+e.Value)
		}
	}

	if len(r.style.Context) > 0 {
		lines = append(lines, "", "[TEST SCENARIO CONTEXT]:")
		for _, l := range r.style.Context {
			lines = append(lines, "   "+l)
		}
	}
	lines = append(lines, wide, "")
	return Report{Lines: lines}, err
}

func (r *Reporter) keyInfo(rec webhook.Record) ([]string, error) {
	var info []string
	lookup := func(field string) (string, bool) {
		return rec.Lookup(r.norm.DisplayName(field))
	}

	if v, ok := lookup(webhook.FieldCallSid); ok {
		info = append(info, "Call SID: "+v)
	}
	if v, ok := lookup(webhook.FieldCallStatus); ok {
		info = append(info, "Status: "+v)
	}
	if v, ok := lookup(webhook.FieldAnsweredBy); ok {
		info = append(info, "AMD Result: "+v, "   "+Interpret(v).Describe(v))
	}
	if v, ok := lookup(webhook.FieldAnsweringMachineDetection); ok {
		info = append(info, "AMD Detection: "+v)
	}

	var err error
	if v, ok := lookup(webhook.FieldMachineDetectionDuration); ok {
		secs, perr := AMDDurationSeconds(v)
		if perr != nil {
			info = append(info, fmt.Sprintf("AMD Duration: %sms (not numeric)", v))
			err = perr
		} else {
			info = append(info, fmt.Sprintf("AMD Duration: %sms (%.2fs)", v, secs))
		}
	}

	if v, ok := lookup(webhook.FieldSequenceNumber); ok {
		info = append(info, "Sequence: "+v)
	}
	if v, ok := lookup(webhook.FieldCallbackSource); ok {
		info = append(info, "Source: "+v)
	}
	return info, err
}

// Entry is one label/value pair inside a category.
type Entry struct {
	Label string
	Value string
}

// Category is a named bucket with its non-blank entries.
type Category struct {
	Name    string
	Entries []Entry
}

// Categorize partitions rec into the fixed buckets plus "Other".
// Blank values are skipped and buckets left without entries are omitted.
// Entries follow bucket order; "Other" is sorted by label.
func (r *Reporter) Categorize(rec webhook.Record) []Category {
	var out []Category
	for _, b := range r.buckets {
		c := Category{Name: b.name}
		for _, label := range b.labels {
			if v, ok := rec[label]; ok && !isBlank(v) {
				c.Entries = append(c.Entries, Entry{Label: label, Value: v})
			}
		}
		if len(c.Entries) > 0 {
			out = append(out, c)
		}
	}

	var other []string
	for label, v := range rec {
		if _, ok := r.bucketOf[label]; ok || isBlank(v) {
			continue
		}
		other = append(other, label)
	}
	if len(other) > 0 {
		sort.Strings(other)
		c := Category{Name: otherBucket}
		for _, label := range other {
			c.Entries = append(c.Entries, Entry{Label: label, Value: rec[label]})
		}
		out = append(out, c)
	}
	return out
}

// AMDInput is everything the /handle_amd report needs.
type AMDInput struct {
	Type       webhook.Type
	Method     webhook.Method
	At         time.Time
	Params     webhook.Params
	AnsweredBy string
	Action     Action
}

// AMD renders the /handle_amd console block.
func (r *Reporter) AMD(in AMDInput) Report {
	wide := strings.Repeat("=", r.style.Width)
	lines := []string{
		"",
		wide,
		fmt.Sprintf("--- AMD TwiML HANDLER (%s) [%s] ---", in.Type, in.Method),
		"Timestamp: " + in.At.Format(TimestampLayout),
		wide,
		">> Call SID: " + orNA(in.Params.Get(webhook.FieldCallSid)),
		">> Call Status: " + orNA(in.Params.Get(webhook.FieldCallStatus)),
		">> AMD Result: " + strings.ToLower(in.AnsweredBy),
	}

	var details []string
	for _, f := range amdDetailFields {
		if v := in.Params.Get(f); v != "" {
			details = append(details, "   "+f+": "+v)
		}
	}
	if len(details) > 0 {
		lines = append(lines, "", "[AMD Details]:")
		lines = append(lines, details...)
	}

	lines = append(lines,
		strings.Repeat("-", r.style.Width),
		">> Action: "+in.Action.Reason,
		">> Message: "+in.Action.Text,
		wide,
		"",
	)
	return Report{Lines: lines}
}

// Silent renders the /silent console block.
func (r *Reporter) Silent(at time.Time, a Action) Report {
	wide := strings.Repeat("=", 50)
	return Report{Lines: []string{
		"",
		wide,
		"--- SILENT ENDPOINT CALLED ---",
		"Timestamp: " + at.Format(TimestampLayout),
		wide,
		">> Action: " + a.Reason,
		fmt.Sprintf(">> Duration: %d seconds (allows AMD to analyze callee)", a.PauseSeconds),
		">> Callee: Studio flow will simulate human/machine scenarios",
		">> Caller: Stays silent - no messages played",
		wide,
		"",
	}}
}

// AMDDurationSeconds converts a millisecond duration string to seconds.
func AMDDurationSeconds(ms string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(ms), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrDurationNotNumeric, ms)
	}
	return v / 1000, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
