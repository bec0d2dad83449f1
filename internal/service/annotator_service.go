package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxAnnotationImageSide = 1568
	maxAnnotationDownload  = 100 << 20
)

const annotationPrompt = `Analyze this visual content as a learned connoisseur and return a JSON object with:
1. A kaomoji (text ascii emoticon) that relates to an element in the content; make it creative and fitting, not generic.
2. A curious, not widely known fun fact about something related to what you see (aesthetic movement, technique, cultural reference, art history, etc.), written as an expert sharing insider knowledge, concise and engaging, with dates, names and details. Do not describe the media itself.
3. A second related but different fun fact on the same theme that complements the first.
4. Exactly 3 niche hashtags focused on specific aesthetic movements, art techniques, or visual culture concepts.

Return ONLY a valid JSON object in this exact format:
{
"kaomoji": "your_kaomoji_here",
"fun_fact": "first fact",
"fun_fact_followup": "second fact",
"hashtags": ["niche_aesthetic1", "specific_technique2", "cultural_movement3"]
}

Do not include # symbols in hashtags.`

// Annotator produces the kaomoji, fun facts and hashtags for a media URL.
// Failures yield an empty annotation.
type Annotator interface {
	Annotate(ctx context.Context, mediaURL string) models.Annotation
}

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type bedrockAnnotator struct {
	modelID string
	api     converseAPI
	client  *http.Client
	logger  *zap.Logger
}

// NewAnnotator returns a Bedrock-backed annotator, or one that always
// returns an empty annotation when AWS credentials are missing.
func NewAnnotator(ctx context.Context, cfg config.Bedrock, client *http.Client, logger *zap.Logger) (Annotator, error) {
	logger = logger.Named("annotator")
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		logger.Warn("bedrock credentials not configured, captions will be empty")
		return noopAnnotator{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newBedrockAnnotator(cfg.ModelID, bedrockruntime.NewFromConfig(awsCfg), client, logger), nil
}

func newBedrockAnnotator(modelID string, api converseAPI, client *http.Client, logger *zap.Logger) *bedrockAnnotator {
	return &bedrockAnnotator{
		modelID: modelID,
		api:     api,
		client:  httpClientOrDefault(client),
		logger:  logger,
	}
}

func (a *bedrockAnnotator) Annotate(ctx context.Context, mediaURL string) models.Annotation {
	annotation, err := a.annotate(ctx, mediaURL)
	if err != nil {
		a.logger.Warn("annotation failed", zap.String("url", mediaURL), zap.Error(err))
		return models.Annotation{Hashtags: []string{}}
	}
	return annotation
}

func (a *bedrockAnnotator) annotate(ctx context.Context, mediaURL string) (models.Annotation, error) {
	data, err := a.download(ctx, mediaURL)
	if err != nil {
		return models.Annotation{}, err
	}

	block, err := mediaBlock(data)
	if err != nil {
		return models.Annotation{}, err
	}

	out, err := a.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(a.modelID),
		Messages: []types.Message{{
			Role: types.ConversationRoleUser,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: annotationPrompt},
				block,
			},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(500),
			Temperature: aws.Float32(0.7),
			TopP:        aws.Float32(0.9),
		},
	})
	if err != nil {
		return models.Annotation{}, fmt.Errorf("converse: %w", err)
	}

	text, err := responseText(out)
	if err != nil {
		return models.Annotation{}, err
	}
	return ParseAnnotation(text)
}

func (a *bedrockAnnotator) download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download media: unexpected status code %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAnnotationDownload))
}

// mediaBlock sends videos as mp4 bytes and images as a downscaled PNG.
func mediaBlock(data []byte) (types.ContentBlock, error) {
	if filetype.IsVideo(data) {
		return &types.ContentBlockMemberVideo{Value: types.VideoBlock{
			Format: types.VideoFormatMp4,
			Source: &types.VideoSourceMemberBytes{Value: data},
		}}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, downscale(img, maxAnnotationImageSide)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &types.ContentBlockMemberImage{Value: types.ImageBlock{
		Format: types.ImageFormatPng,
		Source: &types.ImageSourceMemberBytes{Value: buf.Bytes()},
	}}, nil
}

func downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	if w >= h {
		h = h * maxSide / w
		w = maxSide
	} else {
		w = w * maxSide / h
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func responseText(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("converse returned no message")
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", errors.New("converse returned no text")
}

// ParseAnnotation decodes the model's JSON reply. All four keys must be
// present; hashtags are capped at three and stripped of leading '#'.
func ParseAnnotation(text string) (models.Annotation, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return models.Annotation{}, fmt.Errorf("parse annotation: %w", err)
	}
	for _, key := range []string{"kaomoji", "fun_fact", "fun_fact_followup", "hashtags"} {
		if _, ok := raw[key]; !ok {
			return models.Annotation{}, fmt.Errorf("parse annotation: missing %q", key)
		}
	}

	var a models.Annotation
	for key, target := range map[string]*string{"kaomoji": &a.Kaomoji, "fun_fact": &a.FunFact, "fun_fact_followup": &a.FunFactFollowup} {
		if err := json.Unmarshal(raw[key], target); err != nil {
			return models.Annotation{}, fmt.Errorf("parse annotation %s: %w", key, err)
		}
	}

	var tags []string
	if err := json.Unmarshal(raw["hashtags"], &tags); err != nil {
		tags = nil
	}
	a.Hashtags = make([]string, 0, models.MaxHashtags)
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		a.Hashtags = append(a.Hashtags, tag)
		if len(a.Hashtags) == models.MaxHashtags {
			break
		}
	}
	return a, nil
}

type noopAnnotator struct{}

func (noopAnnotator) Annotate(context.Context, string) models.Annotation {
	return models.Annotation{Hashtags: []string{}}
}
