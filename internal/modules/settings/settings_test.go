package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/testutil"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewRepo(testutil.NewDB(t, &docstore.Row{}))
	svc := NewService(store, Defaults("VibeShop"), nil)

	t.Run("Should serve defaults before the first save", func(t *testing.T) {
		site, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VibeShop", site.SiteName)
		assert.Equal(t, []string{"card", "toss", "transfer"}, site.Methods())
	})

	t.Run("Should reject settings without a payment method", func(t *testing.T) {
		site := Defaults("VibeShop")
		site.SiteEmail = "not-an-email"
		site.PaymentMethods = PaymentMethods{}
		err := svc.Save(ctx, site)
		ae, ok := apperr.As(err)
		require.True(t, ok)
		assert.Contains(t, ae.Fields, "siteemail")
		assert.Contains(t, ae.Fields, "paymentmethods")
	})

	t.Run("Should persist and reload", func(t *testing.T) {
		site := Defaults("VibeShop")
		site.SiteName = "  바이브샵 "
		site.PaymentMethods = PaymentMethods{Transfer: true}
		site.Notifications.NewUser = true
		require.NoError(t, svc.Save(ctx, site))

		fresh := NewService(store, Defaults("ignored"), nil)
		got, err := fresh.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "바이브샵", got.SiteName)
		assert.Equal(t, []string{"transfer"}, got.Methods())
		assert.True(t, got.MethodEnabled("transfer"))
		assert.False(t, got.MethodEnabled("card"))
		assert.True(t, got.Notifications.NewUser)
	})
}
