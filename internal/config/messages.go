package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MessageCatalog maps engine rejection-reason codes to user-facing messages.
type MessageCatalog struct {
	Generic             string            `mapstructure:"generic"`
	CouponApplied       string            `mapstructure:"couponApplied"`
	ReferralApplied     string            `mapstructure:"referralApplied"`
	FreeItemUnavailable string            `mapstructure:"freeItemUnavailable"`
	RejectionReasons    map[string]string `mapstructure:"rejectionReasons"`
}

// DefaultMessageCatalog returns the built-in English catalog. A deployment
// can override any entry via messages.yml.
func DefaultMessageCatalog() MessageCatalog {
	return MessageCatalog{
		Generic:             "This code could not be applied.",
		CouponApplied:       "Coupon applied",
		ReferralApplied:     "Referral code applied",
		FreeItemUnavailable: "A free item could not be added to your cart.",
		RejectionReasons: map[string]string{
			"CampaignLimitReached":              "This promotion has reached its usage limit.",
			"CouponExpired":                     "This coupon has expired.",
			"CouponLimitReached":                "This coupon has reached its usage limit.",
			"CouponNotFound":                    "This coupon code is not valid.",
			"CouponPartOfNotRunningCampaign":    "This coupon is not currently active.",
			"CouponPartOfNotTriggeredCampaign":  "Your cart does not qualify for this coupon.",
			"CouponRecipientDoesNotMatch":       "This coupon was issued to a different customer.",
			"CouponRejectedByCondition":         "Your cart does not meet the conditions for this coupon.",
			"CouponStartDateInFuture":           "This coupon is not active yet.",
			"EffectCouldNotBeApplied":           "This promotion could not be applied.",
			"ProfileLimitReached":               "You have reached the usage limit for this promotion.",
			"ProfileRequired":                   "Sign in to use this code.",
			"ReferralCustomerAlreadyReferred":   "You have already been referred.",
			"AdvocateNotFound":                  "The referring customer could not be found.",
			"ReferralExpired":                   "This referral code has expired.",
			"ReferralLimitReached":              "This referral code has reached its usage limit.",
			"ReferralNotFound":                  "This referral code is not valid.",
			"ReferralPartOfNotRunningCampaign":  "This referral code is not currently active.",
			"ReferralRecipientDoesNotMatch":     "This referral code was issued to a different customer.",
			"ReferralRecipientIdSameAsAdvocate": "You cannot use your own referral code.",
			"ReferralRejectedByCondition":       "Your cart does not meet the conditions for this referral code.",
			"ReferralStartDateInFuture":         "This referral code is not active yet.",
			"ReferralValidConditionMissing":     "This referral code is missing a validity condition.",
		},
	}
}

// ForReason resolves a rejection-reason code to its message. Unrecognized
// codes fall back to the generic message.
func (c MessageCatalog) ForReason(code string) string {
	if msg, ok := c.RejectionReasons[strings.TrimSpace(code)]; ok && msg != "" {
		return msg
	}
	return c.Generic
}

// MessageCatalogHolder serves the current catalog and hot-reloads it when the
// backing file changes.
type MessageCatalogHolder struct {
	current atomic.Value // holds MessageCatalog
}

func NewMessageCatalogHolder() (*MessageCatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("messages")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/promosync/config")
	v.AddConfigPath("/etc/promosync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROMOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &MessageCatalogHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultMessageCatalog())
		return holder, nil
	}

	holder.current.Store(mergeCatalog(v))

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("config: reloading message catalog from %s", e.Name)
		holder.current.Store(mergeCatalog(v))
	})
	v.WatchConfig()

	return holder, nil
}

// Current returns the active catalog.
func (h *MessageCatalogHolder) Current() MessageCatalog {
	if cfg, ok := h.current.Load().(MessageCatalog); ok {
		return cfg
	}
	return DefaultMessageCatalog()
}

func mergeCatalog(v *viper.Viper) MessageCatalog {
	catalog := DefaultMessageCatalog()

	var overrides MessageCatalog
	if err := v.UnmarshalKey("messages", &overrides); err != nil {
		log.Printf("config: invalid message catalog, keeping defaults: %v", err)
		return catalog
	}

	if overrides.Generic != "" {
		catalog.Generic = overrides.Generic
	}
	if overrides.CouponApplied != "" {
		catalog.CouponApplied = overrides.CouponApplied
	}
	if overrides.ReferralApplied != "" {
		catalog.ReferralApplied = overrides.ReferralApplied
	}
	if overrides.FreeItemUnavailable != "" {
		catalog.FreeItemUnavailable = overrides.FreeItemUnavailable
	}
	for code, msg := range overrides.RejectionReasons {
		if msg != "" {
			catalog.RejectionReasons[code] = msg
		}
	}

	return catalog
}
