// workers/metadata_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fizzcaps-server/models"
	"fizzcaps-server/utils"
)

// MetadataPublisher uploads the off-chain loot metadata JSON for every issued
// voucher to R2, so the minted token's URI (loot/<id>.json) resolves. It runs
// off the claim path: Publish never blocks, and an upload failure never fails
// a claim — the voucher is already in the player's hands.
type MetadataPublisher struct {
	queue chan models.LootMetadata
}

func NewMetadataPublisher() *MetadataPublisher {
	return &MetadataPublisher{queue: make(chan models.LootMetadata, 64)}
}

// Publish enqueues a metadata document. If the queue is full the document is
// dropped with a log line; loot metadata can be regenerated offline from the
// voucher fields.
func (w *MetadataPublisher) Publish(meta models.LootMetadata) {
	select {
	case w.queue <- meta:
	default:
		log.Printf("⚠️ [METADATA] queue full, dropping loot %d", meta.LootID)
	}
}

func (w *MetadataPublisher) Start(ctx context.Context) {
	log.Println("🔁 Starting Loot Metadata Publisher…")
	go w.run(ctx)
}

func (w *MetadataPublisher) run(ctx context.Context) {
	for {
		select {
		case meta := <-w.queue:
			w.upload(ctx, meta)
		case <-ctx.Done():
			log.Println("⏹️ Loot Metadata Publisher stopped")
			return
		}
	}
}

func (w *MetadataPublisher) upload(ctx context.Context, meta models.LootMetadata) {
	payload, err := json.Marshal(meta)
	if err != nil {
		log.Printf("❌ [METADATA] marshal failed for loot %d: %v", meta.LootID, err)
		return
	}
	key := fmt.Sprintf("loot/%d.json", meta.LootID)

	url, err := utils.UploadJSONToR2(ctx, key, payload)
	if err != nil {
		// One retry; after that the document is regenerable offline.
		time.Sleep(2 * time.Second)
		if url, err = utils.UploadJSONToR2(ctx, key, payload); err != nil {
			log.Printf("❌ [METADATA] upload failed for loot %d: %v", meta.LootID, err)
			return
		}
	}
	log.Printf("✅ [METADATA] published %s", url)
}
