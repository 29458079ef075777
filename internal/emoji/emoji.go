// Package emoji rewrites :shortcode: sequences into Discord custom emoji
// references so replies render server emoji instead of literal text.
package emoji

import "strings"

// defaultTable maps the server's shortcodes to their full emoji references.
// Animated emoji use the <a:...> form.
var defaultTable = map[string]string{
	":CLbox:":          "<:CLbox:1051203986964893736>",
	":clPog:":          "<:clPog:1004208874406039572>",
	":smugcat:":        "<:smugcat:889673525030420480>",
	":cathink:":        "<:cathink:889687946314272778>",
	":gmeow:":          "<:gmeow:1021027182383997010>",
	":clnom:":          "<:clnom:950943393045954570>",
	":blushycl:":       "<:blushycl:933644628090028032>",
	":yuepetcl:":       "<:yuepetcl:882811013739741184>",
	":clkms:":          "<:clkms:960796681283203113>",
	":evilmewn:":       "<:evilmewn:824967831510712330>",
	":HUH:":            "<a:HUH:1010570028195774524>",
	":MYAAA:":          "<a:MYAAA:1039322389294628946>",
	":clThonkSweat:":   "<a:clThonkSweat:993207609102450808>",
	":clThonkSweat2:":  "<a:clThonkSweat2:993207612361424919>",
	":cldance:":        "<a:cldance:872280682121019462>",
	":clhearts:":       "<a:clhearts:900513327606800395>",
	":petcl:":          "<a:petcl:1053242378359689256>",
	":petloom:":        "<a:petloom:837695455264636969>",
	":petmewny:":       "<a:petmewny:828632539367342140>",
	":upsidedownmewny:": "<a:upsidedownmewny:854905684625326092>",
}

// Replacer substitutes emoji shortcodes in outbound text.
type Replacer struct {
	rep *strings.Replacer
}

// NewReplacer builds a Replacer from the default table merged with overrides.
// Overrides win on shortcode collisions; an empty map is fine.
func NewReplacer(overrides map[string]string) *Replacer {
	merged := make(map[string]string, len(defaultTable)+len(overrides))
	for k, v := range defaultTable {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	pairs := make([]string, 0, len(merged)*2)
	for k, v := range merged {
		pairs = append(pairs, k, v)
	}
	return &Replacer{rep: strings.NewReplacer(pairs...)}
}

// Replace rewrites every known shortcode in text.
func (r *Replacer) Replace(text string) string {
	return r.rep.Replace(text)
}
