package importing

import (
	"path/filepath"
	"strings"
)

// StemFromPath returns the filename without its directory or extension,
// the raw material filename-mode mass import derives names from.
func StemFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DeriveNames computes the release name and software title name filename-
// mode mass import assigns to a single imported file.
//
// releaseName is the stem verbatim, region/version parenthetical tags (e.g.
// "(USA)", "(v1.1)") included. titleName strips every trailing parenthetical
// tag and rewrites a trailing "Leading Article, The"-shaped suffix to "The
// Leading Article".
func DeriveNames(stem string) (releaseName, titleName string) {
	releaseName = stem
	titleName = rewriteLeadingArticle(stripTrailingParentheticals(stem))

	return releaseName, titleName
}

func stripTrailingParentheticals(s string) string {
	for {
		s = strings.TrimRight(s, " ")
		if !strings.HasSuffix(s, ")") {
			return s
		}

		open := strings.LastIndex(s, "(")
		if open < 0 {
			return s
		}

		s = s[:open]
	}
}

var leadingArticles = map[string]bool{"the": true, "a": true, "an": true}

// rewriteLeadingArticle turns "Legend of Zelda, The" into "The Legend of
// Zelda"; titles without a recognised trailing article are left untouched.
func rewriteLeadingArticle(s string) string {
	s = strings.TrimRight(s, " ")

	idx := strings.LastIndex(s, ", ")
	if idx < 0 {
		return s
	}

	article := s[idx+2:]
	if !leadingArticles[strings.ToLower(article)] {
		return s
	}

	return article + " " + s[:idx]
}
