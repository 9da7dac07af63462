package gamecenter

// Resource type names used in request and response documents.
const (
	typeDetail       = "gameCenterDetails"
	typeAchievement  = "gameCenterAchievements"
	typeLocalization = "gameCenterAchievementLocalizations"
	typeImage        = "gameCenterAchievementImages"
)

// ---------------------------------------------------------------------------
// JSON:API document envelope
// ---------------------------------------------------------------------------

type document[A any] struct {
	Data resource[A] `json:"data"`
}

type resource[A any] struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    *A                      `json:"attributes,omitempty"`
	Relationships map[string]relationship `json:"relationships,omitempty"`
}

type relationship struct {
	Data linkage `json:"data"`
}

type linkage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func relatedTo(name, resourceType, id string) map[string]relationship {
	return map[string]relationship{
		name: {Data: linkage{Type: resourceType, ID: id}},
	}
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// AchievementAttributes are sent when creating an achievement.
type AchievementAttributes struct {
	Points           int    `json:"points"`
	ReferenceName    string `json:"referenceName"`
	Repeatable       bool   `json:"repeatable"`
	ShowBeforeEarned bool   `json:"showBeforeEarned"`
	VendorIdentifier string `json:"vendorIdentifier"`
}

// LocalizationAttributes are sent when creating an achievement localization.
type LocalizationAttributes struct {
	AfterEarnedDescription  string `json:"afterEarnedDescription"`
	BeforeEarnedDescription string `json:"beforeEarnedDescription"`
	Locale                  string `json:"locale"`
	Name                    string `json:"name"`
}

type imageCreateAttributes struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

type imageUpdateAttributes struct {
	Uploaded bool `json:"uploaded"`
}

type imageAttributes struct {
	FileName         string            `json:"fileName"`
	FileSize         int64             `json:"fileSize"`
	UploadOperations []UploadOperation `json:"uploadOperations"`
}

// ---------------------------------------------------------------------------
// Image reservations
// ---------------------------------------------------------------------------

// UploadOperation tells the client where to PUT one slice of the file.
type UploadOperation struct {
	Method         string          `json:"method"`
	URL            string          `json:"url"`
	Length         int64           `json:"length"`
	Offset         int64           `json:"offset"`
	RequestHeaders []RequestHeader `json:"requestHeaders"`
}

// RequestHeader is one header the upload target requires.
type RequestHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ImageReservation is the backend's placeholder for an achievement image.
// It must be fulfilled by uploading every operation and then committed.
type ImageReservation struct {
	ID               string
	UploadOperations []UploadOperation
}
