package model

// CacheEntry is the local storage shape of one mirrored record.
//
// LocalKey defaults to the remote id but may be derived from a configured id
// field; Fingerprint is a change-detection token consumers use to skip
// reprocessing; RenderedContent is an optional blob synthesized from
// configured content fields.
type CacheEntry struct {
	LocalKey        string `json:"localKey" bson:"local_key"`
	Data            Record `json:"data" bson:"data"`
	Fingerprint     string `json:"fingerprint" bson:"fingerprint"`
	RenderedContent string `json:"renderedContent,omitempty" bson:"rendered_content,omitempty"`
}

// RemoteID returns the remote id of the mirrored record.
func (e CacheEntry) RemoteID() string {
	return e.Data.ID()
}
