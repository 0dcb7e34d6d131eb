package entity

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CategoryID  *int    `json:"category_id,omitempty"`
	Category    *string `json:"category"`
	Price       float64 `json:"price"` // canonical currency unless converted for display
	Currency    string  `json:"currency,omitempty"`
	Stock       int     `json:"stock"`
	Image       *string `json:"image,omitempty"`
}

// ProductFilter narrows a product listing. Empty fields do not filter.
type ProductFilter struct {
	Search   string
	Category string
}

/*
Schema MySQL for product table:
CREATE TABLE `products` (
  `id` int(11) NOT NULL AUTO_INCREMENT,
  `name` varchar(255) NOT NULL,
  `description` text NOT NULL,
  `category_id` int(11) NULL,
  `price` double NOT NULL,
  `stock` int(11) NOT NULL CHECK (`stock` >= 0),
  `image` varchar(255) NULL,
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
