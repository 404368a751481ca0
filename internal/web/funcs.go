package web

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/kafelog/kafelog-web/internal/domain"
)

// Turkey has stayed on UTC+3 all year since 2016.
var istanbul = time.FixedZone("TRT", 3*60*60)

var months = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

var funcs = template.FuncMap{
	"formatDate":     FormatDate,
	"formatTime":     FormatTime,
	"formatPrice":    FormatPrice,
	"rating":         func(r float64) string { return strconv.FormatFloat(r, 'f', 1, 64) },
	"join":           strings.Join,
	"firstN":         firstN,
	"eventTypeLabel": EventTypeLabel,
	"campaignLabel":  CampaignTypeLabel,
	"coord":          func(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) },
	"filterBar":      newFilterBar,
}

type filterBar struct {
	Path    string
	Param   string
	Options []Option
}

func newFilterBar(path, param string, opts []Option) filterBar {
	return filterBar{Path: path, Param: param, Options: opts}
}

// FormatDate renders a date the way tr-TR long dates read: "2 Kasım 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(istanbul)
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(istanbul).Format("15:04")
}

func FormatPrice(price float64, isFree bool) string {
	if isFree {
		return "Ücretsiz"
	}
	return strconv.FormatFloat(price, 'f', -1, 64) + " TL"
}

func firstN(n int, items []string) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

var eventTypeLabels = map[string]string{
	"workshop": "Workshop",
	"music":    "Müzik",
	"tasting":  "Tadım",
	"social":   "Sosyal",
	"art":      "Sanat",
}

func EventTypeLabel(t string) string {
	if l, ok := eventTypeLabels[t]; ok {
		return l
	}
	return t
}

func CampaignTypeLabel(t domain.CampaignType) string {
	switch t {
	case domain.CampaignPromotion:
		return "Promosyon"
	case domain.CampaignEvent:
		return "Etkinlik"
	case domain.CampaignAnnouncement:
		return "Duyuru"
	}
	return string(t)
}
