// Package metadata fills a space's descriptive fields from its metadata
// document.
//
// The document is a JSON object of the form
//
//	{
//	  "name": "...",
//	  "description": "...",
//	  "external_url": "...",
//	  "properties": {
//	    "github": "...", "twitter": "...", "discord": "...",
//	    "wallets": ["0x..."],
//	    "executionStrategies": ["0x..."]
//	  }
//	}
//
// Every key is optional. A missing key clears the corresponding field, with the
// exception of "name", which keeps the current name. When an object repeats a
// key, the last value wins. Documents that are not valid UTF-8 are rejected.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/space"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tidwall/gjson"
)

var (
	ErrInvalidJSON     = errors.New("metadata: invalid json")
	ErrNotObject       = errors.New("metadata: not a json object")
	ErrInvalidStrategy = errors.New("metadata: invalid execution strategy")
)

// update holds the values that will be written to the space. Zero values are
// the cleared state.
type update struct {
	name        *string
	about       string
	externalURL string
	github      string
	twitter     string
	discord     string
	wallet      string
	executors   []common.Address
	types       []string
}

type fieldMapping struct {
	Path  string
	Apply func(u *update, v string)
}

// documentFields are read from the top level of the document.
var documentFields = []fieldMapping{
	{Path: "name", Apply: func(u *update, v string) { u.name = &v }},
	{Path: "description", Apply: func(u *update, v string) { u.about = v }},
	{Path: "external_url", Apply: func(u *update, v string) { u.externalURL = v }},
}

// propertyFields are read from the "properties" object.
var propertyFields = []fieldMapping{
	{Path: "github", Apply: func(u *update, v string) { u.github = v }},
	{Path: "twitter", Apply: func(u *update, v string) { u.twitter = v }},
	{Path: "discord", Apply: func(u *update, v string) { u.discord = v }},
}

// Enricher resolves metadata URIs and copies the document into spaces.
type Enricher struct {
	Fetcher    ipfs.Fetcher
	Strategies space.StrategyLookup
}

func NewEnricher(fetcher ipfs.Fetcher, strategies space.StrategyLookup) *Enricher {
	return &Enricher{Fetcher: fetcher, Strategies: strategies}
}

// Enrich fetches the document behind metadataURI and updates s in place.
//
// URIs without the ipfs:// scheme are ignored. If fetching, parsing or
// resolving the document fails, the error is returned and s is left untouched.
func (e *Enricher) Enrich(ctx context.Context, s *space.Space, metadataURI string) error {
	if !ipfs.HasScheme(metadataURI) {
		return nil
	}

	p, err := ipfs.ParseURI(metadataURI)
	if err != nil {
		return err
	}

	data, err := e.Fetcher.Cat(ctx, p.String())
	if err != nil {
		return fmt.Errorf("failed to fetch metadata %s: %w", metadataURI, err)
	}

	u, err := e.stage(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to resolve metadata %s: %w", metadataURI, err)
	}

	u.apply(s)

	log.Debug("space metadata applied", "space", s.ID, "uri", metadataURI, "executors", len(s.Executors))
	return nil
}

func (e *Enricher) stage(ctx context.Context, data []byte) (*update, error) {
	if !utf8.Valid(data) || !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrNotObject
	}
	doc = lastWins(doc)

	u := &update{
		executors: []common.Address{},
		types:     []string{},
	}

	for _, f := range documentFields {
		if v := doc.Get(f.Path); present(v) {
			f.Apply(u, v.String())
		}
	}

	props := doc.Get("properties")
	if !present(props) {
		return u, nil
	}
	if !props.IsObject() {
		return nil, fmt.Errorf("%w: properties", ErrNotObject)
	}
	props = lastWins(props)

	for _, f := range propertyFields {
		if v := props.Get(f.Path); present(v) {
			f.Apply(u, v.String())
		}
	}

	// Only the first wallet is kept.
	if wallets := props.Get("wallets"); wallets.IsArray() {
		if all := wallets.Array(); len(all) > 0 && present(all[0]) {
			u.wallet = all[0].String()
		}
	}

	strategies := props.Get("executionStrategies")
	if !present(strategies) {
		return u, nil
	}
	if !strategies.IsArray() {
		return nil, fmt.Errorf("%w: executionStrategies is not an array", ErrInvalidStrategy)
	}

	for i, item := range strategies.Array() {
		if item.Type != gjson.String || !common.IsHexAddress(item.Str) {
			return nil, fmt.Errorf("%w: entry %d: %s", ErrInvalidStrategy, i, item.Raw)
		}
		u.executors = append(u.executors, common.HexToAddress(item.Str))
	}

	for _, executor := range u.executors {
		typ, err := e.strategyType(ctx, executor)
		if err != nil {
			return nil, err
		}
		u.types = append(u.types, typ)
	}

	return u, nil
}

func (e *Enricher) strategyType(ctx context.Context, executor common.Address) (string, error) {
	if e.Strategies == nil {
		return space.UnknownStrategyType, nil
	}

	strategy, err := e.Strategies.ExecutionStrategy(ctx, space.AddressKey(executor))
	if err != nil {
		return "", fmt.Errorf("failed to look up execution strategy %s: %w", executor.Hex(), err)
	}
	if strategy == nil {
		return space.UnknownStrategyType, nil
	}
	return strategy.Type, nil
}

func (u *update) apply(s *space.Space) {
	if u.name != nil {
		s.Name = *u.name
	}
	s.About = u.about
	s.ExternalURL = u.externalURL
	s.Github = u.github
	s.Twitter = u.twitter
	s.Discord = u.discord
	s.Wallet = u.wallet
	s.Executors = u.executors
	s.ExecutorsTypes = u.types
}

// lastWins reverses the keys of obj so that lookups find the last occurrence
// of a repeated key.
func lastWins(obj gjson.Result) gjson.Result {
	return obj.Get("@reverse")
}

// present treats JSON null like a missing key.
func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}
