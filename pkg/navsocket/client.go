package navsocket

// ClientScript connects a page to the navigation socket at /ws. It reports
// the location on connect and on every hashchange or popstate, applies
// navigate messages (a value starting with "#" sets the hash, anything
// else is pushed to the history) and render messages (innerHTML of the
// first element matching the target selector). Pages served in history
// mode mark their body with data-history; clicks on local links are then
// turned into pushState navigations.
const ClientScript = `
<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function location_() {
        return location.hash ? location.hash : location.pathname;
    }

    function send(type) {
        if (ws && ws.readyState === WebSocket.OPEN) {
            ws.send(JSON.stringify({type: type, path: location_()}));
        }
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            reconnectDelay = 1000;
            send('hello');
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'navigate':
                    if (msg.path.charAt(0) === '#') {
                        location.hash = msg.path;
                    } else {
                        history.pushState({}, '', msg.path);
                        send('popstate');
                    }
                    break;

                case 'render':
                    var el = document.querySelector(msg.target);
                    if (el) {
                        el.innerHTML = msg.html;
                    }
                    break;

                case 'error':
                    console.error('[waypoint]', msg.error);
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    window.addEventListener('hashchange', function() { send('hashchange'); });
    window.addEventListener('popstate', function() { send('popstate'); });

    document.addEventListener('click', function(e) {
        if (!document.body.hasAttribute('data-history')) {
            return;
        }
        var a = e.target.closest ? e.target.closest('a[href^="/"]') : null;
        if (!a || a.target === '_blank' || e.metaKey || e.ctrlKey) {
            return;
        }
        e.preventDefault();
        history.pushState({}, '', a.getAttribute('href'));
        send('popstate');
    });

    connect();
})();
</script>
`
