package webhook

// Type is the coarse webhook tag derived from which fields are present.
type Type string

const (
	TypeAMDResult         Type = "AMD_RESULT"
	TypeStatusCallback    Type = "STATUS_CALLBACK"
	TypeRecordingCallback Type = "RECORDING_CALLBACK"
	TypeUnknown           Type = "UNKNOWN"
)

// Classify inspects the raw parameters; the first matching rule wins.
func Classify(p Params) Type {
	switch {
	case p.Has(FieldAnsweredBy) || p.Has(FieldAnsweringMachineDetection):
		return TypeAMDResult
	case p.Has(FieldCallStatus):
		return TypeStatusCallback
	case p.Has(FieldRecordingURL):
		return TypeRecordingCallback
	default:
		return TypeUnknown
	}
}
