package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/loomtrack/services/supplychain/config"
	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexLot indexes a lot summary so the dashboard can search and facet lots
// without hitting the relational store. The document id is the lot id, so
// re-indexing after every aggregate change overwrites in place.
func (c *ElasticClient) IndexLot(ctx context.Context, lot *models.Lot, snapshot models.PipelineSnapshot) error {
	if c == nil {
		return nil
	}

	log.Info().Str("lot_id", lot.ID.String()).Msg("indexing lot summary")

	doc := map[string]interface{}{
		"id":                     lot.ID.String(),
		"tenant_id":              lot.TenantID.String(),
		"style_ref":              lot.StyleRef,
		"status":                 lot.Status,
		"quantity_total":         lot.QuantityTotal,
		"defect_rate":            lot.DefectRate,
		"inspected_progress":     lot.InspectedProgress,
		"total_stages":           snapshot.TotalStages,
		"completed_stages":       snapshot.CompletedStages,
		"stage_progress_percent": snapshot.StageProgressPercent,
		"current_stage_label":    snapshot.CurrentStageLabel,
		"total_co2_kg":           snapshot.TotalCo2Kg,
		"updated_at":             lot.UpdatedAt,
	}
	if lot.FactoryID != nil {
		doc["factory_id"] = lot.FactoryID.String()
	}
	if lot.ClientID != nil {
		doc["client_id"] = lot.ClientID.String()
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal lot document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: lot.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	return nil
}

// SearchLots searches indexed lot summaries with the given query
func (c *ElasticClient) SearchLots(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	if c == nil {
		return nil, errors.New("search is disabled")
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
