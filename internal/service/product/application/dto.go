// internal/service/product/application/dto.go
package application

// OverallStock 是库存批量导入用的商品视图。
type OverallStock struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// ProductQuantity 是 {商品, 数量} 的轻量视图。
type ProductQuantity struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}
