package webhook

// Provider field names referenced outside the label table.
const (
	FieldAccountSid                = "AccountSid"
	FieldCallSid                   = "CallSid"
	FieldCallStatus                = "CallStatus"
	FieldRecordingURL              = "RecordingUrl"
	FieldAnsweredBy                = "AnsweredBy"
	FieldAnsweringMachineDetection = "AnsweringMachineDetection"
	FieldMachineDetectionDuration  = "MachineDetectionDuration"
	FieldSequenceNumber            = "SequenceNumber"
	FieldCallbackSource            = "CallbackSource"

	FieldMachineDetectionSilenceTimeout     = "MachineDetectionSilenceTimeout"
	FieldMachineDetectionSpeechThreshold    = "MachineDetectionSpeechThreshold"
	FieldMachineDetectionSpeechEndThreshold = "MachineDetectionSpeechEndThreshold"
	FieldMachineDetectionTimeout            = "MachineDetectionTimeout"
)

// Group is the report category a label-table entry is filed under.
// GroupOther entries are labeled but reported with unrecognized fields.
type Group int

const (
	GroupOther Group = iota
	GroupCall
	GroupAMD
	GroupCallback
	GroupGeo
)

// Field is one entry of the label table.
// Unit is appended to Label as " (unit)" when a normalizer is built with unit labels.
type Field struct {
	Name  string
	Label string
	Unit  string
	Group Group
}

// DisplayLabel returns the label with or without its unit suffix.
func (f Field) DisplayLabel(withUnits bool) string {
	if withUnits && f.Unit != "" {
		return f.Label + " (" + f.Unit + ")"
	}
	return f.Label
}

// fieldTable is the fixed set of recognized provider fields, in report order
// within each group. Each Name appears exactly once.
var fieldTable = []Field{
	{Name: FieldAccountSid, Label: "Account SID", Group: GroupOther},
	{Name: FieldCallSid, Label: "Call SID", Group: GroupCall},
	{Name: FieldCallStatus, Label: "Call Status", Group: GroupCall},
	{Name: "From", Label: "From Number", Group: GroupCall},
	{Name: "To", Label: "To Number", Group: GroupCall},
	{Name: "Caller", Label: "Caller Number", Group: GroupCall},
	{Name: "Called", Label: "Called Number", Group: GroupCall},
	{Name: "Direction", Label: "Call Direction", Group: GroupCall},
	{Name: "Duration", Label: "Duration (seconds)", Group: GroupCall},
	{Name: "CallDuration", Label: "Call Duration", Group: GroupCall},
	{Name: FieldRecordingURL, Label: "Recording URL", Group: GroupOther},
	{Name: "SipResponseCode", Label: "SIP Response Code", Group: GroupCall},

	{Name: FieldAnsweredBy, Label: "AMD Result", Group: GroupAMD},
	{Name: FieldAnsweringMachineDetection, Label: "AMD Detection", Group: GroupAMD},
	{Name: FieldMachineDetectionDuration, Label: "AMD Duration", Unit: "ms", Group: GroupAMD},
	{Name: FieldMachineDetectionTimeout, Label: "AMD Timeout", Unit: "s", Group: GroupAMD},
	{Name: FieldMachineDetectionSilenceTimeout, Label: "AMD Silence Timeout", Unit: "ms", Group: GroupAMD},
	{Name: FieldMachineDetectionSpeechThreshold, Label: "AMD Speech Threshold", Unit: "ms", Group: GroupAMD},
	{Name: FieldMachineDetectionSpeechEndThreshold, Label: "AMD Speech End Threshold", Unit: "ms", Group: GroupAMD},

	{Name: FieldCallbackSource, Label: "Callback Source", Group: GroupCallback},
	{Name: FieldSequenceNumber, Label: "Sequence Number", Group: GroupCallback},
	{Name: "Timestamp", Label: "Timestamp", Group: GroupCallback},
	{Name: "ApiVersion", Label: "API Version", Group: GroupCallback},

	{Name: "FromCountry", Label: "From Country", Group: GroupGeo},
	{Name: "FromState", Label: "From State", Group: GroupGeo},
	{Name: "FromCity", Label: "From City", Group: GroupGeo},
	{Name: "FromZip", Label: "From ZIP", Group: GroupGeo},
	{Name: "ToCountry", Label: "To Country", Group: GroupGeo},
	{Name: "ToState", Label: "To State", Group: GroupGeo},
	{Name: "ToCity", Label: "To City", Group: GroupGeo},
	{Name: "ToZip", Label: "To ZIP", Group: GroupGeo},
	{Name: "CallerCountry", Label: "Caller Country", Group: GroupGeo},
	{Name: "CallerState", Label: "Caller State", Group: GroupGeo},
	{Name: "CallerCity", Label: "Caller City", Group: GroupGeo},
	{Name: "CallerZip", Label: "Caller ZIP", Group: GroupGeo},
	{Name: "CalledCountry", Label: "Called Country", Group: GroupGeo},
	{Name: "CalledState", Label: "Called State", Group: GroupGeo},
	{Name: "CalledCity", Label: "Called City", Group: GroupGeo},
	{Name: "CalledZip", Label: "Called ZIP", Group: GroupGeo},
}

// Fields returns a copy of the label table in declaration order.
func Fields() []Field {
	out := make([]Field, len(fieldTable))
	copy(out, fieldTable)
	return out
}
