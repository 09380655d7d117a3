package device

import "strings"

// AppTable resolves a human-readable app label (as it appears on screen,
// and as a model names it in a Launch action) to the Android package id
// used to start it. Matching is case-insensitive and also checks each
// entry's aliases, since the same app is referred to by its English and
// localized name interchangeably.
type AppTable struct {
	entries []appEntry
}

type appEntry struct {
	aliases []string
	pkg     string
}

// DefaultAppTable returns the built-in label/package table covering the
// commonly automated apps. Callers that need device-specific overrides
// should build on top of it with WithOverride.
func DefaultAppTable() AppTable {
	return AppTable{entries: []appEntry{
		{[]string{"微信", "wechat"}, "com.tencent.mm"},
		{[]string{"设置", "settings"}, "com.android.settings"},
		{[]string{"支付宝", "alipay"}, "com.eg.android.AlipayGphone"},
		{[]string{"qq"}, "com.tencent.mobileqq"},
		{[]string{"chrome", "google chrome"}, "com.android.chrome"},
		{[]string{"camera", "相机"}, "com.android.camera2"},
		{[]string{"gallery", "photos", "相册"}, "com.google.android.apps.photos"},
		{[]string{"maps", "google maps", "地图"}, "com.google.android.apps.maps"},
		{[]string{"messages", "messaging", "短信"}, "com.google.android.apps.messaging"},
		{[]string{"phone", "dialer", "电话"}, "com.google.android.dialer"},
		{[]string{"contacts", "联系人"}, "com.android.contacts"},
		{[]string{"calendar", "日历"}, "com.google.android.calendar"},
		{[]string{"clock", "时钟"}, "com.android.deskclock"},
		{[]string{"calculator", "计算器"}, "com.android.calculator2"},
		{[]string{"play store", "google play"}, "com.android.vending"},
		{[]string{"gmail"}, "com.google.android.gm"},
		{[]string{"youtube"}, "com.google.android.youtube"},
		{[]string{"taobao", "淘宝"}, "com.taobao.taobao"},
		{[]string{"meituan", "美团"}, "com.sankuai.meituan"},
		{[]string{"dianping", "大众点评"}, "com.dianping.v1"},
	}}
}

// Resolve looks up a package id by label, ignoring case and surrounding
// whitespace.
func (t AppTable) Resolve(label string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return "", false
	}
	for _, e := range t.entries {
		for _, alias := range e.aliases {
			if alias == needle {
				return e.pkg, true
			}
		}
	}
	return "", false
}

// WithOverride returns a copy of the table with label mapped to pkg,
// taking precedence over any built-in entry with the same alias.
func (t AppTable) WithOverride(label, pkg string) AppTable {
	needle := strings.ToLower(strings.TrimSpace(label))
	out := AppTable{entries: make([]appEntry, 0, len(t.entries)+1)}
	out.entries = append(out.entries, appEntry{aliases: []string{needle}, pkg: pkg})
	out.entries = append(out.entries, t.entries...)
	return out
}
