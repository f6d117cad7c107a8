package captions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// PlayerArgs mirrors window.ytplayer.config.args.
type PlayerArgs struct {
	RawPlayerResponse json.RawMessage `json:"raw_player_response,omitempty"`
	PlayerResponse    string          `json:"player_response,omitempty"`
}

// Page is the embedded metadata the locator can inspect.
// Any field may be empty; strategies skip what is missing.
type Page struct {
	URL                   string          `json:"url"`
	InitialPlayerResponse json.RawMessage `json:"ytInitialPlayerResponse,omitempty"`
	PlayerArgs            *PlayerArgs     `json:"playerArgs,omitempty"`
	Scripts               []string        `json:"scripts,omitempty"`
}

// PageFromHTML collects the inline <script> bodies of a watch page.
// Globals are not available from static HTML, so only the inline scan strategy can match.
func PageFromHTML(pageURL string, html []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	p := &Page{URL: pageURL}
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		if text := sel.Text(); text != "" {
			p.Scripts = append(p.Scripts, text)
		}
	})
	return p, nil
}
