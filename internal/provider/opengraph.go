package provider

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// openGraph は動画ページのheadから取得したOpen Graphメタ情報。
type openGraph struct {
	Title   string
	Image   string
	Creator string
}

// parseOpenGraph はHTMLのheadからog:title、og:image、twitter:creatorを取り出す。
// bodyに入った時点で解析を終了する。
func parseOpenGraph(body []byte) openGraph {
	var og openGraph

	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	inHead := false
	var titleText strings.Builder
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return og.withTitleFallback(titleText.String())

		case html.TextToken:
			if inTitle {
				titleText.Write(tokenizer.Text())
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = false
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			switch tagName {
			case "head":
				inHead = true
				continue
			case "body":
				return og.withTitleFallback(titleText.String())
			case "title":
				inTitle = inHead && tt == html.StartTagToken
				continue
			}

			if !inHead || tagName != "meta" || !hasAttr {
				continue
			}

			var property, content string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "property", "name":
					property = strings.ToLower(string(val))
				case "content":
					content = strings.TrimSpace(string(val))
				}
				if !more {
					break
				}
			}

			switch property {
			case "og:title":
				og.Title = content
			case "og:image":
				og.Image = content
			case "twitter:creator":
				og.Creator = strings.TrimPrefix(content, "@")
			}
		}
	}
}

// withTitleFallback はog:titleがない場合にtitle要素の内容を使う。
func (og openGraph) withTitleFallback(title string) openGraph {
	if og.Title == "" {
		og.Title = strings.TrimSpace(title)
	}
	return og
}
