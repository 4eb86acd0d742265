package recipe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Source is a web reference cited by a search-grounded generation.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Image is a generated picture kept inline.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as a displayable data: reference.
func (i Image) DataURI() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseDataURI decodes a data: reference produced by DataURI. A bare base64
// payload without the data: prefix is accepted as PNG.
func ParseDataURI(uri string) (Image, error) {
	meta, payload, found := strings.Cut(uri, ",")
	if !found {
		payload, meta = uri, ""
	}
	mime := "image/png"
	if m, ok := strings.CutPrefix(meta, "data:"); ok {
		m, _, _ = strings.Cut(m, ";")
		if m != "" {
			mime = m
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return Image{MIMEType: mime, Data: data}, nil
}

// Video is a downloaded clip; URI is a local file path the user can play.
type Video struct {
	URI      string
	MIMEType string
}

// MediaState is one of NoMedia, ImageReady or ImageAndVideoReady. A video
// cannot exist without the image it was animated from.
type MediaState interface {
	isMediaState()
}

// NoMedia is the state of a freshly finalized recipe.
type NoMedia struct{}

// ImageReady holds a generated image.
type ImageReady struct {
	Image Image
}

// ImageAndVideoReady holds a generated image and the clip derived from it.
type ImageAndVideoReady struct {
	Image Image
	Video Video
}

func (NoMedia) isMediaState()            {}
func (ImageReady) isMediaState()         {}
func (ImageAndVideoReady) isMediaState() {}

// Recipe is a finalized recipe, AI-derived or entered by hand. Values are
// snapshots: the With* methods return copies.
type Recipe struct {
	ID           string
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	Sources      []Source
	IsManual     bool
	Media        MediaState
}

// Image returns the generated image, if any.
func (r Recipe) Image() (Image, bool) {
	switch m := r.Media.(type) {
	case ImageReady:
		return m.Image, true
	case ImageAndVideoReady:
		return m.Image, true
	}
	return Image{}, false
}

// Video returns the animated clip, if any.
func (r Recipe) Video() (Video, bool) {
	if m, ok := r.Media.(ImageAndVideoReady); ok {
		return m.Video, true
	}
	return Video{}, false
}

// WithImage returns a copy carrying img. Any previous video is dropped since
// it was animated from the replaced image.
func (r Recipe) WithImage(img Image) Recipe {
	r.Media = ImageReady{Image: img}
	return r
}

// WithVideo returns a copy carrying vid, or false when there is no image.
func (r Recipe) WithVideo(vid Video) (Recipe, bool) {
	img, ok := r.Image()
	if !ok {
		return r, false
	}
	r.Media = ImageAndVideoReady{Image: img, Video: vid}
	return r, true
}

// ToEmbeddingText is the text embedded for recipe book search.
func (r Recipe) ToEmbeddingText() string {
	return fmt.Sprintf("Title: %s\nDescription: %s\nIngredients: %s",
		r.Title, r.Description, strings.Join(r.Ingredients, ", "))
}

type recipeJSON struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Ingredients      []string `json:"ingredients"`
	Instructions     []string `json:"instructions"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	VideoURL         string   `json:"videoUrl,omitempty"`
	GroundingSources []Source `json:"groundingSources,omitempty"`
	IsManual         bool     `json:"isManual,omitempty"`
}

// MarshalJSON flattens the media state into imageUrl/videoUrl.
func (r Recipe) MarshalJSON() ([]byte, error) {
	out := recipeJSON{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Ingredients:      nonNil(r.Ingredients),
		Instructions:     nonNil(r.Instructions),
		GroundingSources: r.Sources,
		IsManual:         r.IsManual,
	}
	if img, ok := r.Image(); ok {
		out.ImageURL = img.DataURI()
	}
	if vid, ok := r.Video(); ok {
		out.VideoURL = vid.URI
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the media state. A videoUrl without an imageUrl is
// ignored.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var in recipeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Recipe{
		ID:           in.ID,
		Title:        in.Title,
		Description:  in.Description,
		Ingredients:  nonNil(in.Ingredients),
		Instructions: nonNil(in.Instructions),
		Sources:      in.GroundingSources,
		IsManual:     in.IsManual,
		Media:        NoMedia{},
	}
	if in.ImageURL == "" {
		return nil
	}
	img, err := ParseDataURI(in.ImageURL)
	if err != nil {
		return err
	}
	*r = r.WithImage(img)
	if in.VideoURL != "" {
		*r, _ = r.WithVideo(Video{URI: in.VideoURL, MIMEType: "video/mp4"})
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
