package meta

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/creative"
	"github.com/metalake/ads-core/internal/graph"
	"github.com/metalake/ads-core/internal/media"
)

// =============================================================================
// AD CREATIVES DATASET
// Creative metadata enriched with the derived format, destination URLs and
// flattened story spec. This handler also drives media acquisition: it scans
// until the media budget is satisfied, storing at most one asset per
// creative, images before videos.
// =============================================================================

var creativeFields = []string{
	"id", "name", "account_id", "actor_id", "status", "adlabels",
	"body", "call_to_action_type", "object_type", "product_set_id", "url_tags",
	"image_hash", "image_url", "thumbnail_url", "video_id",
	"link_url", "object_url", "template_url", "instagram_permalink_url",
	"object_story_spec", "effective_object_story_id", "effective_instagram_media_id",
	"template_url_spec", "asset_feed_spec",
}

// CreativeOptions tunes the creatives scan for one client run.
type CreativeOptions struct {
	// Limit caps the total number of creative rows across all accounts.
	// Zero means unbounded.
	Limit int

	// DownloadImages and DownloadVideos enable media acquisition.
	DownloadImages bool
	DownloadVideos bool

	// Budget overrides the store targets. Nil derives a budget of one
	// asset per enabled kind.
	Budget *media.Budget

	// AccountDelay spaces the per-account listing calls. Zero disables
	// the pause.
	AccountDelay time.Duration
}

func (o CreativeOptions) budget() *media.Budget {
	if o.Budget != nil {
		return o.Budget
	}
	images, videos := 0, 0
	if o.DownloadImages {
		images = 1
	}
	if o.DownloadVideos {
		videos = 1
	}
	return media.NewBudget(images, videos)
}

// Creatives extracts creative metadata for every account, acquiring media
// along the way until the budget is satisfied.
//
// The scan stops early on three conditions, checked before every account
// and every creative: the media budget is met, the global row limit is
// reached, or the bounded search is exhausted. The bounded search applies
// when a row limit is combined with image acquisition: up to ten times the
// limit is scanned to find creatives that actually carry media.
func (s *Service) Creatives(ctx context.Context, accounts []AdAccount, opts CreativeOptions) (*Table, error) {
	t := NewTable("ad_creatives")
	budget := opts.budget()

	maxSearch := 0
	if opts.Limit > 0 && opts.DownloadImages {
		maxSearch = opts.Limit * 10
	}
	scanned := 0

	log.Info().Int("accounts", len(accounts)).Msg("retrieving ad creatives")
	if opts.Limit > 0 {
		log.Info().Int("limit", opts.Limit).Msg("global creative limit across all ad accounts")
		if maxSearch > 0 {
			log.Info().Int("max_search", maxSearch).
				Msg("bounding the scan while searching for creatives with media")
		}
	}
	if budget.NeedsImages() || budget.NeedsVideos() {
		log.Info().Str("budget", budget.String()).Msg("media acquisition goal")
	}

	for idx, acc := range accounts {
		if budget.Satisfied() {
			log.Info().Str("budget", budget.String()).Msg("media budget satisfied, stopping scan")
			break
		}
		if opts.Limit > 0 && len(t.Rows) >= opts.Limit {
			log.Info().Int("limit", opts.Limit).Msg("global creative limit reached, stopping")
			break
		}
		if maxSearch > 0 && scanned >= maxSearch {
			log.Warn().Int("max_search", maxSearch).Msg("max search limit reached, stopping scan")
			break
		}

		log.Info().
			Str("account_id", acc.ID).
			Str("account_name", acc.Name).
			Int("position", idx+1).
			Int("accounts", len(accounts)).
			Msg("processing ad account")

		// Space the listing calls to stay clear of per-account limits.
		if idx > 0 && opts.AccountDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.AccountDelay):
			}
		}

		spec := graph.CallSpec{
			ObjectID: acc.ID,
			Edge:     "adcreatives",
			Fields:   creativeFields,
		}
		if opts.Limit > 0 {
			if opts.DownloadImages {
				// Over-fetch so creatives with media turn up sooner,
				// bounded by what the search budget still allows.
				remaining := opts.Limit - len(t.Rows)
				if remaining < 10 {
					remaining = 10
				}
				if left := maxSearch - scanned; remaining > left {
					remaining = left
				}
				spec.Limit = remaining
			} else {
				remaining := opts.Limit - len(t.Rows)
				if remaining <= 0 {
					log.Info().Str("account_name", acc.Name).
						Msg("global limit already reached, skipping account")
					continue
				}
				spec.Limit = remaining
			}
		}

		res, err := s.client.Call(ctx, spec)
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("creative listing incomplete")
		}
		log.Info().
			Str("account_id", acc.ID).
			Str("account_name", acc.Name).
			Int("creatives", len(res.Records)).
			Msg("creatives fetched from account")

		for _, rec := range res.Records {
			if budget.Satisfied() {
				log.Info().Str("budget", budget.String()).Msg("media budget satisfied, stopping scan")
				break
			}
			if opts.Limit > 0 && len(t.Rows) >= opts.Limit {
				log.Info().Int("limit", opts.Limit).Msg("global creative limit reached, stopping")
				break
			}
			if maxSearch > 0 && scanned >= maxSearch {
				log.Warn().Int("max_search", maxSearch).Msg("max search limit reached, stopping scan")
				break
			}
			scanned++

			storySpec := creative.NormalizeSpec(rec["object_story_spec"])
			format := creative.Classify(rec)
			urls := creative.ExtractURLs(rec)
			story := creative.FlattenStory(storySpec)

			creativeID := toString(rec["id"])
			imageURL := toString(rec["image_url"])
			videoID := creative.VideoID(rec)
			hasImage := imageURL != ""
			hasVideo := videoID != ""

			// Decide whether this creative matches what the budget still
			// wants. Images take priority when both kinds are needed, so
			// a video-only creative waits until the image target is met.
			shouldProcess := false
			switch {
			case budget.NeedsImages() && budget.NeedsVideos():
				if !budget.ImageSatisfied() && hasImage {
					shouldProcess = true
				} else if budget.ImageSatisfied() && !budget.VideoSatisfied() && hasVideo {
					shouldProcess = true
				}
			case budget.NeedsImages():
				shouldProcess = hasImage && !budget.ImageSatisfied()
			case budget.NeedsVideos():
				shouldProcess = hasVideo && !budget.VideoSatisfied()
			default:
				shouldProcess = true
			}
			if !shouldProcess {
				log.Debug().Str("creative_id", creativeID).Str("budget", budget.String()).
					Msg("creative does not match current media needs, skipping")
				continue
			}

			// At most one asset per creative: image first, video only
			// when no image was stored.
			cloudURL := ""
			if s.media != nil && opts.DownloadImages && hasImage && !budget.ImageSatisfied() {
				if ref := s.media.StoreImage(ctx, creativeID, imageURL); ref != "" {
					cloudURL = ref
					budget.RecordImage()
					log.Info().Str("creative_id", creativeID).Str("budget", budget.String()).
						Msg("image stored")
				}
			}
			if cloudURL == "" && s.media != nil && opts.DownloadVideos && hasVideo && !budget.VideoSatisfied() {
				if ref := s.media.StoreVideo(ctx, creativeID, videoID); ref != "" {
					cloudURL = ref
					budget.RecordVideo()
					log.Info().Str("creative_id", creativeID).Str("budget", budget.String()).
						Msg("video stored")
				}
			}

			accountID := toString(rec["account_id"])
			if accountID == "" {
				accountID = acc.ID
			}

			t.Append(Row{
				"creative_id":  creativeID,
				"name":         toString(rec["name"]),
				"account_id":   accountID,
				"account_name": acc.Name,
				"currency":     acc.Currency,

				"actor_id": toString(rec["actor_id"]),
				"status":   toString(rec["status"]),
				"adlabels": jsonField(rec["adlabels"]),

				"body":                toString(rec["body"]),
				"call_to_action_type": toString(rec["call_to_action_type"]),
				"object_type":         toString(rec["object_type"]),

				"image_hash":        toString(rec["image_hash"]),
				"image_url":         imageURL,
				"thumbnail_url":     toString(rec["thumbnail_url"]),
				"video_id_raw":      toString(rec["video_id"]),
				"cloud_storage_url": cloudURL,

				"url_tags":       toString(rec["url_tags"]),
				"product_set_id": toString(rec["product_set_id"]),

				"effective_object_story_id":    toString(rec["effective_object_story_id"]),
				"effective_instagram_media_id": toString(rec["effective_instagram_media_id"]),

				"template_url_spec": jsonField(rec["template_url_spec"]),
				"asset_feed_spec":   jsonField(rec["asset_feed_spec"]),

				"creative_format": format,
				"primary_url":     urls.Primary,
				"link_url":        urls.Link,
				"object_url":      urls.Object,
				"template_url":    urls.Template,
				"instagram_url":   urls.Instagram,

				"page_id":             story.PageID,
				"instagram_actor_id":  story.InstagramActorID,
				"link_url_from_spec":  story.LinkURL,
				"link_caption":        story.LinkCaption,
				"link_name":           story.LinkName,
				"link_description":    story.LinkDescription,
				"link_message":        story.LinkMessage,
				"link_call_to_action": story.LinkCallToAction,

				"video_id":             story.VideoID,
				"video_title":          story.VideoTitle,
				"video_message":        story.VideoMessage,
				"video_call_to_action": story.VideoCallToAction,

				"template_message":        story.TemplateMessage,
				"template_call_to_action": story.TemplateCallToAction,
				"template_link":           story.TemplateLink,

				"photo_url":     story.PhotoURL,
				"photo_caption": story.PhotoCaption,

				"object_story_spec": jsonField(storySpec),
			})
		}
	}

	if len(t.Rows) > 0 {
		log.Info().Int("total", len(t.Rows)).Msg("creatives processed")
	} else {
		log.Warn().Msg("no creatives found for any of the provided ad accounts")
	}
	return t, nil
}
