// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package fossil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// A Fetcher retrieves the fossil calibrations
// of a named taxon from some source.
type Fetcher interface {
	Fetch(taxon string) ([]Record, error)
}

// A Client is a Fetcher
// backed by a remote fossil calibration service.
//
// The service is expected to answer
// a GET request of the form
// <base>?taxon=<name>
// with a JSON document like:
//
//	{
//	  "records": [
//	    {
//	      "id": "pbdb:83453",
//	      "taxon": "Homininae",
//	      "min_ma": 7.25,
//	      "max_ma": 10.0,
//	      "placement": "crown"
//	    }
//	  ]
//	}
type Client struct {
	// Base is the URL of the calibration service.
	Base string

	// HTTP is the client used for the requests.
	// If nil a client with a 60 second timeout is used.
	HTTP *http.Client
}

type apiAnswer struct {
	Records []apiRecord `json:"records"`
}

type apiRecord struct {
	ID        string  `json:"id"`
	Taxon     string  `json:"taxon"`
	MinMa     float64 `json:"min_ma"`
	MaxMa     float64 `json:"max_ma"`
	Placement string  `json:"placement"`
}

// Fetch retrieves the calibrations of a taxon
// from the remote service.
// A taxon unknown to the service
// returns an empty list and no error.
func (c *Client) Fetch(taxon string) ([]Record, error) {
	cl := c.HTTP
	if cl == nil {
		cl = &http.Client{Timeout: 60 * time.Second}
	}

	q := url.Values{}
	q.Set("taxon", taxon)
	resp, err := cl.Get(c.Base + "?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("taxon %q: %v", taxon, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("taxon %q: service answer: %s", taxon, resp.Status)
	}

	var a apiAnswer
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("taxon %q: invalid service answer: %v", taxon, err)
	}

	recs := make([]Record, 0, len(a.Records))
	for _, ar := range a.Records {
		pl := Placement(ar.Placement)
		switch pl {
		case Crown, Stem:
		default:
			continue
		}
		tax := ar.Taxon
		if tax == "" {
			tax = taxon
		}
		recs = append(recs, Record{
			ID:        ar.ID,
			Taxon:     tax,
			MinMa:     ar.MinMa,
			MaxMa:     ar.MaxMa,
			Placement: pl,
		})
	}
	return recs, nil
}
