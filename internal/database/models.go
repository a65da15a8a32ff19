package database

// Render is one stored render with its artifact locations.
type Render struct {
	ID                int64
	RenderID          string
	POIID             string
	POIName           string
	Locale            string
	Provider          string
	ManifestPath      string
	PayloadPath       string
	StoryboardPath    string
	ResponsePath      string
	SignedManifestURL *string
	SignedVideoURL    *string
	AssetCount        int
	DryRun            bool
	Manifest          string // manifest JSON as served by the highlights API
	CreatedAt         *string
}

// Feedback is a viewer's helpfulness vote on a highlight.
type Feedback struct {
	ID          string
	HighlightID string
	WasHelpful  bool
	Context     *string
	ReceivedAt  *string
}

// TelemetryEvent is a client event with its raw JSON payload.
type TelemetryEvent struct {
	ID         string
	Event      string
	Payload    string
	ReceivedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalRenders    int
	POIs            int
	ExecutedRenders int
	Feedback        int
	HelpfulFeedback int
	TelemetryEvents int
}
