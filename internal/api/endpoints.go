package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Page wraps one page of records with the pagination metadata the API
// reported for it.
type Page struct {
	Records []Record
	Page    int
	PerPage int
	Total   int
}

// PokemonPage fetches one page of the basic pokemon listing.
func (c *Client) PokemonPage(ctx context.Context, page, perPage int) (Page, error) {
	var envelope struct {
		Pokemons []Record `json:"pokemons"`
		Page     int      `json:"page"`
		PerPage  int      `json:"per_page"`
		Total    int      `json:"total"`
	}
	if err := c.getJSON(ctx, "/pokemon", pageParams(page, perPage), &envelope); err != nil {
		return Page{}, err
	}
	return Page{Records: envelope.Pokemons, Page: envelope.Page, PerPage: envelope.PerPage, Total: envelope.Total}, nil
}

// PokemonAttributes fetches the full attributes of a single pokemon.
func (c *Client) PokemonAttributes(ctx context.Context, id int) (Record, error) {
	var record Record
	if err := c.getJSON(ctx, fmt.Sprintf("/pokemon/%d", id), nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// CombatsPage fetches one page of the combats listing.
func (c *Client) CombatsPage(ctx context.Context, page, perPage int) (Page, error) {
	var envelope struct {
		Combats []Record `json:"combats"`
		Page    int      `json:"page"`
		PerPage int      `json:"per_page"`
		Total   int      `json:"total"`
	}
	if err := c.getJSON(ctx, "/combats", pageParams(page, perPage), &envelope); err != nil {
		return Page{}, err
	}
	return Page{Records: envelope.Combats, Page: envelope.Page, PerPage: envelope.PerPage, Total: envelope.Total}, nil
}

func pageParams(page, perPage int) url.Values {
	return url.Values{
		"page":     []string{strconv.Itoa(page)},
		"per_page": []string{strconv.Itoa(perPage)},
	}
}
