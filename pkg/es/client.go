// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"shitu-go/internal/config"
	"shitu-go/internal/model"
	"shitu-go/pkg/log"
)

var ESClient *elasticsearch.Client

// 错题本索引结构，题干与错因分析使用 ik 中文分词器
const questionIndexMapping = `{
	"mappings": {
		"properties": {
			"question_id": { "type": "keyword" },
			"user_id": { "type": "keyword" },
			"paper_id": { "type": "keyword" },
			"grade": { "type": "integer" },
			"subject": { "type": "keyword" },
			"knowledge_point": { "type": "keyword" },
			"question_type": { "type": "keyword" },
			"content": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"error_analysis": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"is_correct": { "type": "boolean" }
		}
	}
}`

// InitES 初始化 Elasticsearch 客户端并确保错题本索引存在。
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(client, esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	createRes, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(questionIndexMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, createRes.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// QuestionSearchQuery 是错题本全文检索的条件。
type QuestionSearchQuery struct {
	UserID    string
	Text      string
	Grade     int
	Subject   string
	OnlyWrong bool
	TopK      int
}

// QuestionIndex 负责错题本索引的写入与检索。
type QuestionIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewQuestionIndex 创建 QuestionIndex。
func NewQuestionIndex(client *elasticsearch.Client, indexName string) *QuestionIndex {
	return &QuestionIndex{client: client, index: indexName}
}

// Index 将题目逐条写入索引，文档 ID 即题目 ID。
func (q *QuestionIndex) Index(ctx context.Context, docs []model.QuestionDocument) error {
	for _, doc := range docs {
		docBytes, err := json.Marshal(doc)
		if err != nil {
			return err
		}

		req := esapi.IndexRequest{
			Index:      q.index,
			DocumentID: doc.QuestionID,
			Body:       bytes.NewReader(docBytes),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, q.client)
		if err != nil {
			return err
		}
		if res.IsError() {
			log.Errorf("索引题目到 Elasticsearch 出错: %s", res.String())
			res.Body.Close()
			return fmt.Errorf("索引题目 %s 失败", doc.QuestionID)
		}
		res.Body.Close()
	}
	return nil
}

// buildSearchBody 构建检索语句：题干与错因分析做全文匹配，其余条件做过滤。
func buildSearchBody(query QuestionSearchQuery) map[string]interface{} {
	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"user_id": query.UserID}},
	}
	if query.Grade > 0 {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"grade": query.Grade}})
	}
	if query.Subject != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"subject": query.Subject}})
	}
	if query.OnlyWrong {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"is_correct": false}})
	}
	topK := query.TopK
	if topK <= 0 {
		topK = 10
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query.Text,
						"fields": []string{"content^2", "error_analysis", "knowledge_point"},
					},
				},
				"filter": filters,
			},
		},
		"size": topK,
	}
}

// Search 执行错题本检索。
func (q *QuestionIndex) Search(ctx context.Context, query QuestionSearchQuery) ([]model.QuestionSearchResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchBody(query)); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := q.client.Search(
		q.client.Search.WithContext(ctx),
		q.client.Search.WithIndex(q.index),
		q.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[QuestionIndex] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.QuestionDocument `json:"_source"`
				Score  float64                `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.QuestionSearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.QuestionSearchResult{QuestionDocument: hit.Source, Score: hit.Score})
	}
	return results, nil
}
