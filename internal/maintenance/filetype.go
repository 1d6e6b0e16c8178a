package maintenance

// deprecatedFileTypes maps a historical file_type value onto the generic
// type it has been consolidated into. A FileSet whose file_type is not a
// key of this map needs no migration.
//
// mediaScanFileType is handled specially: besides being consolidated into
// "Scan" like the other scan variants, each of its FileSets also gets a
// ReleaseItem created with a heuristically-decided item_type.
const mediaScanFileType = "media_scan"

var deprecatedFileTypes = map[string]string{
	"box_scan":          "Scan",
	"cart_scan":         "Scan",
	"disk_label_scan":   "Scan",
	mediaScanFileType:   "Scan",
	"screenshot_title":  "Screenshot",
	"screenshot_ingame": "Screenshot",
	"screenshot_menu":   "Screenshot",
	"manual_scan":       "Document",
	"catalog_page":      "Document",
	"flyer":             "Document",
}

// canonicalFileTypeOf reports the consolidated file_type a deprecated
// value migrates to, and whether fileType is deprecated at all.
func canonicalFileTypeOf(fileType string) (string, bool) {
	target, ok := deprecatedFileTypes[fileType]
	return target, ok
}
