package domain

// Emotion is one of the seven canonical expression categories.
type Emotion string

const (
	EmotionNeutral   Emotion = "Neutral"
	EmotionHappy     Emotion = "Happy"
	EmotionSad       Emotion = "Sad"
	EmotionAngry     Emotion = "Angry"
	EmotionFearful   Emotion = "Fearful"
	EmotionDisgusted Emotion = "Disgusted"
	EmotionSurprised Emotion = "Surprised"
)

// Emotions lists every canonical emotion in model output order.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionFearful,
	EmotionDisgusted,
	EmotionSurprised,
}

// emotionAliases maps short-form emotion names used by remote models to the
// canonical vocabulary. Lookups are case-sensitive; unlisted values pass
// through unchanged.
var emotionAliases = map[string]Emotion{
	"Fear":     EmotionFearful,
	"fear":     EmotionFearful,
	"Disgust":  EmotionDisgusted,
	"disgust":  EmotionDisgusted,
	"Surprise": EmotionSurprised,
	"surprise": EmotionSurprised,
	"happy":    EmotionHappy,
	"sad":      EmotionSad,
	"angry":    EmotionAngry,
	"neutral":  EmotionNeutral,
}

// NormalizeEmotion resolves remote short-form aliases into the canonical
// vocabulary. It is idempotent: canonical values map to themselves.
func NormalizeEmotion(raw string) Emotion {
	if canonical, ok := emotionAliases[raw]; ok {
		return canonical
	}
	return Emotion(raw)
}

// StressLevel is the coarse three-bucket severity classification.
type StressLevel string

const (
	StressLow    StressLevel = "Low"
	StressMedium StressLevel = "Medium"
	StressHigh   StressLevel = "High"
)

// stressRank orders stress levels for comparisons and combined-stress math.
var stressRank = map[StressLevel]int{
	StressLow:    0,
	StressMedium: 1,
	StressHigh:   2,
}

// Rank returns the ordinal position of the stress level (Low=0..High=2).
func (s StressLevel) Rank() int {
	return stressRank[s]
}

// Escalate raises the stress level one notch. High stays High.
func (s StressLevel) Escalate() StressLevel {
	switch s {
	case StressLow:
		return StressMedium
	case StressMedium:
		return StressHigh
	default:
		return s
	}
}

// stressByEmotion is the fixed emotion to stress lookup used by every
// analyzer path.
var stressByEmotion = map[Emotion]StressLevel{
	EmotionAngry:     StressHigh,
	EmotionDisgusted: StressHigh,
	EmotionFearful:   StressHigh,
	EmotionSad:       StressHigh,
	EmotionSurprised: StressMedium,
	EmotionHappy:     StressLow,
	EmotionNeutral:   StressLow,
}

// StressFromEmotion maps a canonical emotion to its stress level. Unknown
// emotions classify as Low.
func StressFromEmotion(e Emotion) StressLevel {
	if level, ok := stressByEmotion[e]; ok {
		return level
	}
	return StressLow
}

// NegativeEmotions are the categories that add urgency weight on top of the
// base stress score.
var NegativeEmotions = map[Emotion]bool{
	EmotionAngry:     true,
	EmotionFearful:   true,
	EmotionSad:       true,
	EmotionDisgusted: true,
}

// FeatureLevel is the five-point ordinal severity scale for facial features.
type FeatureLevel string

const (
	FeatureNormal   FeatureLevel = "Normal"
	FeatureMild     FeatureLevel = "Mild"
	FeatureModerate FeatureLevel = "Moderate"
	FeatureHigh     FeatureLevel = "High"
	FeatureSevere   FeatureLevel = "Severe"
)

// FeatureLevels is the ordinal scale in index order (0..4).
var FeatureLevels = []FeatureLevel{
	FeatureNormal,
	FeatureMild,
	FeatureModerate,
	FeatureHigh,
	FeatureSevere,
}

// Index returns the ordinal index of the feature level (Normal=0..Severe=4).
func (f FeatureLevel) Index() int {
	for i, level := range FeatureLevels {
		if level == f {
			return i
		}
	}
	return 0
}

// FeatureFromScore maps a continuous [0,1] score onto the ordinal scale via
// floor(score*5), clamped at Severe.
func FeatureFromScore(score float64) FeatureLevel {
	idx := int(score * 5)
	if idx < 0 {
		idx = 0
	}
	if idx > 4 {
		idx = 4
	}
	return FeatureLevels[idx]
}

// FeatureFromIndex maps an ordinal index onto the scale, clamping out-of-range
// values.
func FeatureFromIndex(idx int) FeatureLevel {
	if idx < 0 {
		idx = 0
	}
	if idx > 4 {
		idx = 4
	}
	return FeatureLevels[idx]
}

// Detection method provenance tags. Every result carries exactly one so that
// callers can audit which analyzer produced it.
const (
	MethodRemoteCNN   = "cnn-backend"
	MethodRekognition = "rekognition"
	MethodLandmark    = "landmark-geometry"
	MethodPixel       = "pixel-heuristic"
)

// BoundingBox is the face area in image coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceResult carries the per-face outcome on multi-face paths.
type FaceResult struct {
	FaceID         int             `json:"faceId"`
	Emotion        Emotion         `json:"emotion"`
	StressLevel    StressLevel     `json:"stressLevel"`
	Confidence     float64         `json:"confidence"`
	BoundingBox    BoundingBox     `json:"boundingBox"`
	AllPredictions map[Emotion]int `json:"allPredictions,omitempty"`
}

// FacialAnalysis holds the landmark-path sub-scores. All scores are in [0,1].
type FacialAnalysis struct {
	EyeFatigue      float64 `json:"eyeFatigue"`
	BrowTension     float64 `json:"browTension"`
	MouthTension    float64 `json:"mouthTension"`
	DarkCircles     float64 `json:"darkCircles"`
	WrinkleIndex    float64 `json:"wrinkleIndex"`
	FatigueScore    float64 `json:"fatigueScore"`
	OverallStress   float64 `json:"overallStress"`
	EyeOpenness     float64 `json:"eyeOpenness"`
	BrowEyeDistance float64 `json:"browEyeDistance"`
	MouthAspect     float64 `json:"mouthAspect"`
}

// DetectionResult is the canonical output of every analyzer path.
//
// Invariant: Emotion, StressLevel, EyeStrain, BrowTension and FacialFatigue
// are always populated, whichever path produced the result.
type DetectionResult struct {
	Emotion         Emotion         `json:"emotion"`
	StressLevel     StressLevel     `json:"stressLevel"`
	EyeStrain       FeatureLevel    `json:"eyeStrain"`
	BrowTension     FeatureLevel    `json:"browTension"`
	FacialFatigue   FeatureLevel    `json:"facialFatigue"`
	Confidence      int             `json:"confidence"`
	DetectionMethod string          `json:"detectionMethod"`
	FaceDetected    bool            `json:"faceDetected"`
	AllPredictions  map[Emotion]int `json:"allPredictions"`
	FacesCount      int             `json:"facesCount"`
	AllFaces        []FaceResult    `json:"allFaces,omitempty"`
	CombinedStress  StressLevel     `json:"combinedStressLevel"`
	ReliefUrgency   int             `json:"reliefUrgency"`
	FacialAnalysis  *FacialAnalysis `json:"facialAnalysis,omitempty"`
}

// DominantEmotion returns the highest-probability entry of a prediction map.
// Ties resolve in canonical emotion order so results are deterministic.
func DominantEmotion(predictions map[Emotion]int) Emotion {
	dominant := EmotionNeutral
	best := -1
	for _, e := range Emotions {
		if p, ok := predictions[e]; ok && p > best {
			dominant = e
			best = p
		}
	}
	return dominant
}

// CombinedStressLevel returns the highest stress level across all faces.
func CombinedStressLevel(faces []FaceResult) StressLevel {
	combined := StressLow
	for _, f := range faces {
		if f.StressLevel.Rank() > combined.Rank() {
			combined = f.StressLevel
		}
	}
	return combined
}
