package main

import (
	"github.com/spf13/cobra"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/pagination"
)

func newProductsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var (
		category int64
		search   string
		sort     string
		minPrice string
		maxPrice string
		page     int
		perPage  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := domain.ProductQuery{
				CategoryID: category,
				Search:     search,
				Sort:       domain.SortOrder(sort),
				Page:       pagination.New(page, perPage),
			}
			var err error
			if query.MinPrice, err = optionalPrice(minPrice); err != nil {
				return err
			}
			if query.MaxPrice, err = optionalPrice(maxPrice); err != nil {
				return err
			}

			result, err := c.catalog.ListProducts(cmd.Context(), query)
			if err != nil {
				return err
			}
			renderProducts(c.out, c.styles, result)
			return nil
		},
	}
	list.Flags().Int64Var(&category, "category", 0, "category id")
	list.Flags().StringVar(&search, "search", "", "text to search for")
	list.Flags().StringVar(&sort, "sort", string(domain.SortNewest), "newest, price_low, price_high or name")
	list.Flags().StringVar(&minPrice, "min-price", "", "lowest price, e.g. 10.00")
	list.Flags().StringVar(&maxPrice, "max-price", "", "highest price, e.g. 99.99")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&perPage, "per-page", pagination.DefaultPerPage, "products per page")

	cmd.AddCommand(list)
	return cmd
}

func optionalPrice(raw string) (*money.Cents, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := money.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
