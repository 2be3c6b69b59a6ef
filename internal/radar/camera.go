package radar

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nea-sg/rain-radar-camera/internal/common"
)

const (
	// Advertised content type. The assembled animation is a GIF, but
	// existing consumers expect this label; do not correct it.
	cameraContentType = "image/png"

	attrUpdatedAt = "Updated at"
	attrURL       = "URL"
)

// StateStore is the host-side state surface the camera reads and writes
// through. GetState returns the latest state and attributes for an entity.
type StateStore interface {
	GetState(entityID string) (string, map[string]string, error)
	SetState(entityID string, state string, attributes map[string]string)
}

// DeviceInfo identifies the logical device an entity is grouped under.
type DeviceInfo struct {
	DefaultName  string   `json:"default_name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// Camera assembles an animated rain-map snapshot from the last ten published
// radar tiles and caches the most recent result.
//
// All pipeline cycles run on a single owner goroutine; Image submits a
// request onto it and blocks for the reply. The cached fields therefore have
// exactly one writer, and the read lock below only covers accessor reads
// from host goroutines.
type Camera struct {
	name     string
	prefix   string
	entityID string

	fetcher Fetcher
	states  StateStore

	now func() time.Time

	mu                  sync.RWMutex
	lastImage           []byte
	lastImageTime       time.Time
	lastImageTimePretty string
	lastURL             string

	requests chan imageRequest
	done     chan struct{}
}

type imageRequest struct {
	ctx   context.Context
	reply chan []byte
}

// NewCamera creates a rain-map camera entity. name is the display-name base
// and prefix the stable identifier base from the host configuration.
func NewCamera(name, prefix string, fetcher Fetcher, states StateStore) *Camera {
	return &Camera{
		name:     name + " Rain Map",
		prefix:   prefix,
		entityID: "camera." + common.Slug(prefix+"_rain_map"),
		fetcher:  fetcher,
		states:   states,
		now:      time.Now,
		requests: make(chan imageRequest),
		done:     make(chan struct{}),
	}
}

// Start launches the owner goroutine that serializes pipeline cycles.
func (c *Camera) Start() {
	go c.run()
}

// Close stops the owner goroutine. In-flight Image calls return nil.
func (c *Camera) Close() {
	close(c.done)
}

func (c *Camera) run() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.requests:
			req.reply <- c.snapshot(req.ctx)
		}
	}
}

// Image returns the current animated rain-map image, running a refresh cycle
// if the cache gate does not hold. It never returns an error: every failure
// degrades to the best available cached result, or nil when none exists yet.
func (c *Camera) Image(ctx context.Context) []byte {
	reply := make(chan []byte, 1)

	select {
	case c.requests <- imageRequest{ctx: ctx, reply: reply}:
	case <-ctx.Done():
		return nil
	case <-c.done:
		return nil
	}

	select {
	case img := <-reply:
		return img
	case <-ctx.Done():
		return nil
	}
}

// snapshot is one full pipeline cycle. Only the owner goroutine calls it.
func (c *Camera) snapshot(ctx context.Context) []byte {
	wallNow := c.now()
	bucketNow := CeilBucket(wallNow, BucketSize)

	// Cache gate: nothing newer can exist before the next bucket boundary.
	if c.lastImageTime.Equal(bucketNow.Add(-BucketSize)) && c.lastImage != nil {
		log.Printf("DEBUG: %s: returning cached rain map for bucket %s", c.entityID, c.lastImageTimePretty)
		return c.lastImage
	}

	cycleID := uuid.NewString()
	times := BucketTimes(wallNow)

	// Fan out one fetch per bucket; join-all, results stay index-aligned
	// with their bucket. No cache fields are touched inside the fan-out.
	results := make([][]byte, len(times))
	var wg sync.WaitGroup
	for i, ts := range times {
		wg.Add(1)
		go func(i int, ts time.Time) {
			defer wg.Done()

			body, err := c.fetcher.FetchFrame(ctx, ts)
			if err != nil {
				log.Printf("WARN: %s: cycle %s: fetch failed for %s: %v", c.name, cycleID, FrameURL(ts), err)
				return
			}
			results[i] = body
		}(i, ts)
	}
	wg.Wait()

	var frames []*image.RGBA
	for i, body := range results {
		if body == nil {
			continue
		}
		frame, err := decodeFrame(body)
		if err != nil {
			log.Printf("WARN: %s: cycle %s: undecodable frame for %s: %v", c.name, cycleID, FrameURL(times[i]), err)
			continue
		}
		frames = append(frames, frame)
	}

	if len(frames) < 2 {
		// Not enough material for an animation; keep whatever we had.
		log.Printf("DEBUG: %s: cycle %s: only %d frames decoded; keeping previous animation", c.entityID, cycleID, len(frames))
		return c.lastImage
	}

	for i, frame := range frames {
		drawProgressBar(frame, float64(i)/float64(len(frames)-1))
	}

	encoded, err := encodeAnimation(frames)
	if err != nil {
		log.Printf("WARN: %s: cycle %s: failed to encode animation: %v", c.name, cycleID, err)
		return c.lastImage
	}

	c.mu.Lock()
	c.lastImage = encoded
	c.mu.Unlock()

	// Cache metadata only advances on a full window, so a partial cycle is
	// retried in full next time.
	if len(frames) == len(times) {
		last := times[len(times)-1]

		c.mu.Lock()
		c.lastImageTime = last
		c.lastImageTimePretty = last.Format(time.RFC3339)
		c.lastURL = FrameURL(last)
		c.mu.Unlock()

		c.commitAttributes()
		log.Printf("DEBUG: %s: rain map updated, last frame %s", c.entityID, c.lastURL)
	}

	return encoded
}

// commitAttributes pushes the refreshed metadata through the host state
// store. The host only re-reads attributes through a separate accessor path,
// so this write keeps its view in sync proactively.
func (c *Camera) commitAttributes() {
	state, attrs, err := c.states.GetState(c.entityID)
	if err != nil {
		state, attrs = "", nil
	}

	merged := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		merged[k] = v
	}

	c.mu.RLock()
	merged[attrUpdatedAt] = c.lastImageTimePretty
	merged[attrURL] = c.lastURL
	c.mu.RUnlock()

	c.states.SetState(c.entityID, state, merged)
}

// EntityID returns the stable host entity identifier.
func (c *Camera) EntityID() string {
	return c.entityID
}

// UniqueID returns the unique ID.
func (c *Camera) UniqueID() string {
	return c.prefix + " Rain Map"
}

// Name returns the display name of this entity.
func (c *Camera) Name() string {
	return c.name
}

// SupportedFeatures returns the supported feature flags. Always zero.
func (c *Camera) SupportedFeatures() int {
	return 0
}

// ContentType returns the advertised image content type.
func (c *Camera) ContentType() string {
	return cameraContentType
}

// StreamSource returns the live-stream source. The rain map has none.
func (c *Camera) StreamSource() string {
	return ""
}

// ExtraStateAttributes returns the metadata of the last full-success cycle.
func (c *Camera) ExtraStateAttributes() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]string{
		attrUpdatedAt: c.lastImageTimePretty,
		attrURL:       c.lastURL,
	}
}

// DeviceInfo groups this entity under the weather coordinator device.
func (c *Camera) DeviceInfo() DeviceInfo {
	return DeviceInfo{
		DefaultName:  "Weather forecast coordinator",
		Identifiers:  []string{"nea_sg_weather"},
		Manufacturer: "NEA Weather",
		Model:        "data.gov.sg API Polling",
	}
}
