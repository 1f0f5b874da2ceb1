package creative

// URLSet holds the destination URLs of a creative. Primary is the first
// non-empty of Link, Object, Template, in that order.
type URLSet struct {
	Primary   string
	Link      string
	Object    string
	Template  string
	Instagram string
}

// ExtractURLs reads the direct URL fields off a creative record.
func ExtractURLs(record map[string]any) URLSet {
	urls := URLSet{
		Link:      getString(record, "link_url"),
		Object:    getString(record, "object_url"),
		Template:  getString(record, "template_url"),
		Instagram: getString(record, "instagram_permalink_url"),
	}
	switch {
	case urls.Link != "":
		urls.Primary = urls.Link
	case urls.Object != "":
		urls.Primary = urls.Object
	case urls.Template != "":
		urls.Primary = urls.Template
	}
	return urls
}
