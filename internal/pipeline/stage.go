package pipeline

// Stage names a step of the pipeline. The value persisted with a record is
// the last stage the run reached: on success the stage that just completed,
// on failure the stage that failed.
type Stage string

const (
	StageUploaded    Stage = "uploaded"
	StageOCR         Stage = "ocr"
	StageCorrection  Stage = "correction"
	StageTranslation Stage = "translation"
	StageSynthesis   Stage = "synthesis"
	StageDone        Stage = "done"
)

var stageOrder = []Stage{
	StageUploaded,
	StageOCR,
	StageCorrection,
	StageTranslation,
	StageSynthesis,
	StageDone,
}

// Index returns the position of s in the execution order, or -1.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

// Label is the human form used in progress output.
func (s Stage) Label() string {
	switch s {
	case StageOCR:
		return "[1/4] extracting text"
	case StageCorrection:
		return "[2/4] correcting medications"
	case StageTranslation:
		return "[3/4] generating Urdu instructions"
	case StageSynthesis:
		return "[4/4] synthesizing audio"
	}
	return string(s)
}

func (s Stage) String() string { return string(s) }
