// Package pagebuilder validates and normalizes the block-based page documents
// used by WODs, workout blocks and programs. A document is an ordered list of
// pages, each holding an ordered list of typed blocks; the whole structure is
// serialized into a single JSON column on save.
package pagebuilder

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Block types
const (
	BlockTypeSectionHeader = "section-header"
	BlockTypeRichText      = "rich-text"
	BlockTypeList          = "list"
	BlockTypeQuiz          = "quiz"
	BlockTypeQuote         = "quote"
	BlockTypeImage         = "image"
	BlockTypeVideo         = "video"
	BlockTypeAIAgent       = "ai-agent"
	BlockTypeDocument      = "document"
	BlockTypePrompt        = "prompt"
	BlockTypeAutomation    = "automation"
	BlockTypePDF           = "pdf"
)

// referenceContentTypes maps content-reference block types to the content type
// their embedded reference must resolve to
var referenceContentTypes = map[string]string{
	BlockTypeImage:      "image",
	BlockTypeVideo:      "video",
	BlockTypeAIAgent:    "ai_agent",
	BlockTypeDocument:   "document",
	BlockTypePrompt:     "prompt",
	BlockTypeAutomation: "automation",
	BlockTypePDF:        "pdf",
}

var knownBlockTypes = map[string]bool{
	BlockTypeSectionHeader: true,
	BlockTypeRichText:      true,
	BlockTypeList:          true,
	BlockTypeQuiz:          true,
	BlockTypeQuote:         true,
	BlockTypeImage:         true,
	BlockTypeVideo:         true,
	BlockTypeAIAgent:       true,
	BlockTypeDocument:      true,
	BlockTypePrompt:        true,
	BlockTypeAutomation:    true,
	BlockTypePDF:           true,
}

// Block is one typed building block within a page. Data is shaped by Type and
// passed through opaquely except for content-reference blocks.
type Block struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Order  int             `json:"order"`
	PageID string          `json:"pageId"`
}

// Page is one named page holding an ordered list of blocks
type Page struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
	Order  int     `json:"order"`
}

// ContentRef is a content-reference embedded in a block: the block stores a
// pointer to a content item, never a copy of it.
type ContentRef struct {
	BlockID       string
	ContentType   string
	ContentItemID uint
}

type refData struct {
	ContentItemID uint `json:"content_item_id"`
}

// Validate checks every block carries a known type and, for content-reference
// blocks, a resolvable reference shape. It does not touch the database; the
// caller resolves the collected refs against the content repository.
func Validate(pages []Page) error {
	for _, page := range pages {
		for _, block := range page.Blocks {
			if !knownBlockTypes[block.Type] {
				return fmt.Errorf("unknown block type %q on page %q", block.Type, page.Title)
			}
			if _, isRef := referenceContentTypes[block.Type]; isRef {
				var ref refData
				if err := json.Unmarshal(block.Data, &ref); err != nil || ref.ContentItemID == 0 {
					return fmt.Errorf("block %q of type %q is missing its content reference", block.ID, block.Type)
				}
			}
		}
	}
	return nil
}

// Normalize sorts pages and blocks by their order fields, reassigns sequential
// orders starting at zero, stamps each block with its page ID and fills in
// missing IDs. The result is the canonical form stored in the JSON column.
func Normalize(pages []Page) []Page {
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Order < pages[j].Order })
	for pi := range pages {
		page := &pages[pi]
		page.Order = pi
		if page.ID == "" {
			page.ID = uuid.New().String()
		}
		sort.SliceStable(page.Blocks, func(i, j int) bool { return page.Blocks[i].Order < page.Blocks[j].Order })
		for bi := range page.Blocks {
			block := &page.Blocks[bi]
			block.Order = bi
			block.PageID = page.ID
			if block.ID == "" {
				block.ID = uuid.New().String()
			}
		}
	}
	return pages
}

// ContentRefs collects every content reference embedded in the document.
// Validate must have accepted the document first.
func ContentRefs(pages []Page) []ContentRef {
	var refs []ContentRef
	for _, page := range pages {
		for _, block := range page.Blocks {
			contentType, isRef := referenceContentTypes[block.Type]
			if !isRef {
				continue
			}
			var ref refData
			if err := json.Unmarshal(block.Data, &ref); err != nil {
				continue
			}
			refs = append(refs, ContentRef{
				BlockID:       block.ID,
				ContentType:   contentType,
				ContentItemID: ref.ContentItemID,
			})
		}
	}
	return refs
}
