package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPricer is a mock implementation of Pricer.
type MockPricer struct {
	mock.Mock
}

func (m *MockPricer) Price(ctx context.Context, cart []model.CartLine) (model.PricingResult, error) {
	args := m.Called(ctx, cart)
	return args.Get(0).(model.PricingResult), args.Error(1)
}

// MockSessionGateway is a mock implementation of SessionGateway.
type MockSessionGateway struct {
	mock.Mock
}

func (m *MockSessionGateway) CreateSession(ctx context.Context, intent model.CheckoutIntent) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func pricedBlueTee() model.PricingResult {
	return model.PricingResult{
		LineItems: []model.PricedLineItem{{
			ProductID:      1,
			Name:           "Blue Tee",
			Image:          "/images/blue-tee.jpg",
			UnitPriceCents: 1500,
			Quantity:       2,
			LineTotalCents: 3000,
		}},
		TotalCents: 3000,
	}
}

func TestCheckoutService_CreateSession_Success(t *testing.T) {
	ctx := context.Background()
	cart := []model.CartLine{{ProductID: 1, Quantity: 2}}

	mockPricer := new(MockPricer)
	mockGateway := new(MockSessionGateway)

	mockPricer.On("Price", ctx, cart).Return(pricedBlueTee(), nil)
	mockGateway.On("CreateSession", ctx, model.CheckoutIntent{
		Priced:     pricedBlueTee(),
		Cart:       cart,
		Email:      "buyer@example.com",
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
		BaseURL:    "https://shop.example.com",
	}).Return(&model.CheckoutResponse{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil)

	service := NewCheckoutService(mockPricer, mockGateway, zerolog.Nop())
	resp, err := service.CreateSession(ctx, &model.CheckoutRequest{Cart: cart, Email: "  buyer@example.com "}, "https://shop.example.com/")

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.ID)
	assert.Equal(t, "https://checkout.example.com/cs_test_1", resp.URL)

	mockPricer.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestCheckoutService_CreateSession_Errors(t *testing.T) {
	ctx := context.Background()
	cart := []model.CartLine{{ProductID: 1, Quantity: 2}}

	tests := []struct {
		name             string
		request          *model.CheckoutRequest
		mockSetup        func(*MockPricer, *MockSessionGateway)
		expectedSentinel error
	}{
		{
			name:             "Nil request",
			request:          nil,
			mockSetup:        func(p *MockPricer, g *MockSessionGateway) {},
			expectedSentinel: model.ErrInvalidRequest,
		},
		{
			name:    "No purchasable items",
			request: &model.CheckoutRequest{Cart: []model.CartLine{{ProductID: 999, Quantity: 1}}},
			mockSetup: func(p *MockPricer, g *MockSessionGateway) {
				p.On("Price", ctx, []model.CartLine{{ProductID: 999, Quantity: 1}}).
					Return(model.PricingResult{LineItems: []model.PricedLineItem{}}, nil)
			},
			expectedSentinel: model.ErrEmptyCart,
		},
		{
			name:    "Cart too large passes through",
			request: &model.CheckoutRequest{Cart: cart},
			mockSetup: func(p *MockPricer, g *MockSessionGateway) {
				p.On("Price", ctx, cart).Return(pricedBlueTee(), nil)
				g.On("CreateSession", ctx, mock.AnythingOfType("model.CheckoutIntent")).Return(nil, model.ErrCartTooLarge)
			},
			expectedSentinel: model.ErrCartTooLarge,
		},
		{
			name:    "Provider failure",
			request: &model.CheckoutRequest{Cart: cart},
			mockSetup: func(p *MockPricer, g *MockSessionGateway) {
				p.On("Price", ctx, cart).Return(pricedBlueTee(), nil)
				g.On("CreateSession", ctx, mock.AnythingOfType("model.CheckoutIntent")).Return(nil, errors.New("connection refused"))
			},
			expectedSentinel: model.ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPricer := new(MockPricer)
			mockGateway := new(MockSessionGateway)
			tt.mockSetup(mockPricer, mockGateway)

			service := NewCheckoutService(mockPricer, mockGateway, zerolog.Nop())
			resp, err := service.CreateSession(ctx, tt.request, "http://localhost:3000")

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.expectedSentinel)

			mockPricer.AssertExpectations(t)
			mockGateway.AssertExpectations(t)
		})
	}
}

func TestCheckoutService_CreateSession_PricingFailure(t *testing.T) {
	ctx := context.Background()
	cart := []model.CartLine{{ProductID: 1, Quantity: 1}}

	mockPricer := new(MockPricer)
	mockGateway := new(MockSessionGateway)
	mockPricer.On("Price", ctx, cart).Return(model.PricingResult{}, errors.New("database error"))

	service := NewCheckoutService(mockPricer, mockGateway, zerolog.Nop())
	resp, err := service.CreateSession(ctx, &model.CheckoutRequest{Cart: cart}, "http://localhost:3000")

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.False(t, model.IsValidationError(err))
	mockGateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}
