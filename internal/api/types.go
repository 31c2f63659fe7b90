package api

import "github.com/fjod/go_cart/storefront/internal/domain"

// Endpoint paths relative to the base URL.
const (
	PathRegister       = "/user/register"
	PathLogin          = "/user/login"
	PathRefresh        = "/auth/refresh"
	PathProfile        = "/user/profile"
	PathUpdateUserInfo = "/update-user-info"
	PathProducts       = "/products"
	PathCart           = "/cart"
	PathCartAdd        = "/cart/add"
	PathCartUpdate     = "/cart/update-quantity"
	PathCartClear      = "/cart/clear"
	PathCheckout       = "/checkout"
	PathOrders         = "/orders"
)

// StatusResponse is the {success,message} envelope most mutations answer with.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Err converts a success=false envelope into a KindBusiness error.
func (r StatusResponse) Err(fallback string) error {
	if r.Success {
		return nil
	}
	return BusinessError(r.Message, fallback)
}

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Message      string `json:"message,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	JWTToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
}

type ProfileResponse struct {
	Username      string `json:"username,omitempty"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial"`
	LastName      string `json:"lastName"`
	Birthdate     string `json:"birthdate"`
	Address       string `json:"address"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

func (p ProfileResponse) ToDomain() domain.UserProfile {
	return domain.UserProfile{
		Username:      p.Username,
		FirstName:     p.FirstName,
		MiddleInitial: p.MiddleInitial,
		LastName:      p.LastName,
		Email:         p.Email,
		Birthdate:     p.Birthdate,
		Address:       p.Address,
		ContactNumber: p.ContactNumber,
	}
}

type ProfileRequest struct {
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Birthdate     string `json:"birthdate"`
	Address       string `json:"address"`
	Password      string `json:"password,omitempty"`
}

type UserInfoRequest struct {
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
	Birthdate     string `json:"birthdate"`
}

type ProductDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Allergens   string  `json:"allergens,omitempty"`
	ImageURL    string  `json:"image_url"`
}

func (p ProductDTO) ToDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Allergens:   p.Allergens,
		ImageURL:    p.ImageURL,
	}
}

type ProductsResponse struct {
	Products []ProductDTO `json:"products"`
}

type CartItemDTO struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

func (c CartItemDTO) ToDomain() domain.CartLine {
	return domain.CartLine{
		ProductID: c.ProductID,
		Name:      c.Name,
		UnitPrice: c.Price,
		Quantity:  c.Quantity,
		ImageURL:  c.ImageURL,
	}
}

type CartItemsResponse struct {
	CartItems []CartItemDTO `json:"cartItems"`
}

type CartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CheckoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OrderID *int64 `json:"orderId"`
}

type OrderItemDTO struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type OrderDTO struct {
	OrderID       int64          `json:"orderId"`
	Items         []OrderItemDTO `json:"items"`
	TotalPrice    *float64       `json:"totalPrice,omitempty"`
	Address       string         `json:"address,omitempty"`
	ContactNumber string         `json:"contactNumber,omitempty"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	Status        string         `json:"status,omitempty"`
}

func (o OrderDTO) ToDomain() domain.Order {
	order := domain.Order{
		OrderID:         o.OrderID,
		Items:           make([]domain.OrderItem, 0, len(o.Items)),
		ShippingAddress: o.Address,
		ContactNumber:   o.ContactNumber,
		PaymentMethod:   o.PaymentMethod,
		Status:          domain.ParseOrderStatus(o.Status),
	}
	for _, it := range o.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			ImageURL:    it.ImageURL,
		})
	}
	if o.TotalPrice != nil {
		order.TotalPrice = *o.TotalPrice
	} else {
		order.TotalPrice = order.ItemsTotal()
	}
	return order
}

type OrdersResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Orders  []OrderDTO `json:"orders"`
}
