package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

type platformRules struct {
	hosts   []string
	content []string
	noise   []string
}

var platforms = map[Platform]platformRules{
	PlatformGreenhouse: {
		hosts:   []string{"greenhouse.io"},
		content: []string{".job__description.body", ".job__description", ".job-description__content", "#content", ".job-post-container"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	PlatformLever: {
		hosts:   []string{"lever.co"},
		content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		noise:   []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	PlatformWorkday: {
		hosts:   []string{"workday.com", "myworkdayjobs.com"},
		content: []string{"[data-automation-id='jobDescription']", ".job-description"},
		noise:   []string{"[data-automation-id='applyButton']", ".application-section"},
	},
	PlatformAshby: {
		hosts:   []string{"ashbyhq.com"},
		content: []string{"[class*='descriptionText']", "main"},
		noise:   []string{"[class*='applicationForm']"},
	},
}

// commonNoise is removed on every platform: application forms, EEO text, share widgets and consent banners
var commonNoise = []string{
	"form", "#application-form", ".application-form", ".apply-button-container",
	".voluntary-disclosure", ".eeo-statement", ".eeo-section", ".legal-disclosure", ".self-identification",
	".social-share", ".share-buttons", ".cookie-consent", ".gdpr-notice",
}

// genericJobSelectors are tried for unrecognized job boards
var genericJobSelectors = []string{
	".job-description", ".job-content", "#job-description", "#job-content", ".posting-content",
	".job-details", "[data-testid='job-description']", "main", "article", ".content", "#content",
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for platform, rules := range platforms {
		for _, suffix := range rules.hosts {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return platform
			}
		}
	}
	return PlatformUnknown
}

// ContentSelectors returns the content selectors for a platform
func ContentSelectors(platform Platform) []string {
	if rules, ok := platforms[platform]; ok {
		return rules.content
	}
	return genericJobSelectors
}

// NoiseSelectors returns the selectors stripped before text extraction on a platform
func NoiseSelectors(platform Platform) []string {
	noise := append([]string(nil), commonNoise...)
	if rules, ok := platforms[platform]; ok {
		noise = append(noise, rules.noise...)
	}
	return noise
}
